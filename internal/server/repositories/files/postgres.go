package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filerelay/internal/common"
	"filerelay/internal/dbx"
	"filerelay/internal/server/models"
)

// PostgresRepository implements file storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new file record. Name is the primary key, so a second
// insert with the same name fails at the database level.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (name, original_name, display_name, file_type, file_size,
			transfer_state, host_ip, shared, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		file.Name, file.OriginalName, file.DisplayName, file.Type, file.Size,
		file.TransferState, file.HostIP, file.Shared, file.UserID, file.CreationTime)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the record for name, including soft-deleted ones; callers
// decide whether a deleted record is acceptable. Returns ErrNotFound when
// no row exists.
func (r *PostgresRepository) Get(ctx context.Context, name string) (*models.File, error) {
	query := `
		SELECT name, original_name, display_name, file_type, file_size,
			transfer_state, host_ip, shared, user_id, deleted, COALESCE(deleted_by, ''), created_at
		FROM files WHERE name=$1
	`
	f := &models.File{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&f.Name, &f.OriginalName, &f.DisplayName, &f.Type, &f.Size,
		&f.TransferState, &f.HostIP, &f.Shared, &f.UserID, &f.Deleted, &f.DeletedBy, &f.CreationTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

// Count returns the number of live records matching the listing filter.
// expectedFilename narrows by display/original name substring when set.
func (r *PostgresRepository) Count(ctx context.Context, userID string, fileType models.FileType, expectedFilename string) (int, error) {
	query := `
		SELECT COUNT(*) FROM files
		WHERE user_id=$1 AND file_type=$2 AND NOT deleted
			AND ($3 = '' OR original_name LIKE '%' || $3 || '%' OR display_name LIKE '%' || $3 || '%')
	`
	var n int
	if err := r.db.QueryRowContext(ctx, query, userID, fileType, expectedFilename).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// List returns one page of live records, newest first. page is 1-based.
func (r *PostgresRepository) List(ctx context.Context, userID string, fileType models.FileType, expectedFilename string, page, pageSize int) ([]*models.File, error) {
	query := `
		SELECT name, original_name, display_name, file_type, file_size,
			transfer_state, host_ip, shared, user_id, deleted, COALESCE(deleted_by, ''), created_at
		FROM files
		WHERE user_id=$1 AND file_type=$2 AND NOT deleted
			AND ($3 = '' OR original_name LIKE '%' || $3 || '%' OR display_name LIKE '%' || $3 || '%')
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`
	rows, err := r.db.QueryContext(ctx, query, userID, fileType, expectedFilename, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f := &models.File{}
		if err := rows.Scan(&f.Name, &f.OriginalName, &f.DisplayName, &f.Type, &f.Size,
			&f.TransferState, &f.HostIP, &f.Shared, &f.UserID, &f.Deleted, &f.DeletedBy, &f.CreationTime); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkTransferDone transitions the record to a terminal state. The WHERE
// clause excludes already-final rows, so concurrent pollers observing the
// same worker response race to a single winner; the losers see applied=false
// and treat the call as an idempotent no-op.
func (r *PostgresRepository) MarkTransferDone(ctx context.Context, name string, state models.FileTransferState, size int64) (bool, error) {
	query := `
		UPDATE files SET transfer_state=$2, file_size=$3
		WHERE name=$1 AND transfer_state NOT IN ('SUCCESS', 'ERROR')
	`
	res, err := r.db.ExecContext(ctx, query, name, state, size)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

// SetShared flips the visibility flag. Exactly one live row must match.
func (r *PostgresRepository) SetShared(ctx context.Context, name string, shared bool) error {
	return r.execOne(ctx, `UPDATE files SET shared=$2 WHERE name=$1 AND NOT deleted`, name, shared)
}

// UpdateDisplayName renames the user-facing label.
func (r *PostgresRepository) UpdateDisplayName(ctx context.Context, name, displayName string) error {
	return r.execOne(ctx, `UPDATE files SET display_name=$2 WHERE name=$1 AND NOT deleted`, name, displayName)
}

// Delete soft-deletes the record, recording which role removed it.
func (r *PostgresRepository) Delete(ctx context.Context, name string, deleter models.Deleter) error {
	return r.execOne(ctx, `UPDATE files SET deleted=TRUE, deleted_by=$2 WHERE name=$1 AND NOT deleted`, name, deleter)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}
