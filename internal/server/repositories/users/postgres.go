package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filerelay/internal/common"
	"filerelay/internal/dbx"
	"filerelay/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *StoredUser) error {
	query := `INSERT INTO users (id, name, pwd_hash, is_admin) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.PasswordHash, user.Admin)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*StoredUser, error) {
	query := `SELECT id, name, pwd_hash, is_admin FROM users WHERE name=$1`
	u := &StoredUser{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(&u.ID, &u.Name, &u.PasswordHash, &u.Admin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, name, is_admin FROM users WHERE id=$1`
	u := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Admin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}
