package files

import (
	"context"

	"filerelay/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) error
	Get(ctx context.Context, name string) (*models.File, error)
	Count(ctx context.Context, userID string, fileType models.FileType, expectedFilename string) (int, error)
	List(ctx context.Context, userID string, fileType models.FileType, expectedFilename string, page, pageSize int) ([]*models.File, error)
	// MarkTransferDone applies the terminal state and size only while the
	// record is still non-final. It reports whether the update was applied;
	// false means the record had already settled.
	MarkTransferDone(ctx context.Context, name string, state models.FileTransferState, size int64) (bool, error)
	SetShared(ctx context.Context, name string, shared bool) error
	UpdateDisplayName(ctx context.Context, name, displayName string) error
	Delete(ctx context.Context, name string, deleter models.Deleter) error
}
