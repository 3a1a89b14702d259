package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filerelay/internal/common"
	"filerelay/internal/dbx"
	"filerelay/internal/server/models"
)

// PostgresRepository implements job tracking over a dbx.DBTX. The
// (job_type, target) primary key enforces the at-most-one-active-job
// invariant at the database level.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO jobs (job_type, target, user_id, host_ip, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		job.Type, job.Target, job.UserID, job.HostIP, job.CreationTime)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindActive(ctx context.Context, jobType models.JobType, target string) (*models.Job, error) {
	query := `
		SELECT job_type, target, user_id, host_ip, created_at
		FROM jobs WHERE job_type=$1 AND target=$2
	`
	j := &models.Job{}
	err := r.db.QueryRowContext(ctx, query, jobType, target).Scan(
		&j.Type, &j.Target, &j.UserID, &j.HostIP, &j.CreationTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return j, nil
}

func (r *PostgresRepository) CountActive(ctx context.Context, hostIP string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE host_ip=$1`, hostIP).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// Delete removes the job record. Deleting an already-absent job is not an
// error: concurrent reconcilers may settle the same transfer.
func (r *PostgresRepository) Delete(ctx context.Context, jobType models.JobType, target string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE job_type=$1 AND target=$2`, jobType, target)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
