package jobs

import (
	"context"

	"filerelay/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, job *models.Job) error
	// FindActive returns the active job for (jobType, target) or
	// common.ErrNotFound when none exists.
	FindActive(ctx context.Context, jobType models.JobType, target string) (*models.Job, error)
	// CountActive returns the number of active jobs on the given host,
	// used for least-loaded worker selection.
	CountActive(ctx context.Context, hostIP string) (int, error)
	Delete(ctx context.Context, jobType models.JobType, target string) error
}
