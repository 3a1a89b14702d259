package users

import (
	"context"

	"filerelay/internal/server/models"
)

// StoredUser couples the identity with its password hash; the hash never
// leaves the repository layer except for verification.
type StoredUser struct {
	models.User
	PasswordHash []byte
}

type Repository interface {
	Create(ctx context.Context, user *StoredUser) error
	GetByName(ctx context.Context, name string) (*StoredUser, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
