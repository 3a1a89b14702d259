// This file implements UserService: credential verification, JWT minting
// and the first-run admin bootstrap.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"filerelay/internal/common"
	"filerelay/internal/logging"
	"filerelay/internal/server/auth"
	"filerelay/internal/server/config"
	"filerelay/internal/server/models"
	"filerelay/internal/server/repositories/repomanager"
	userrepo "filerelay/internal/server/repositories/users"
)

type UserService struct {
	db                          *sql.DB
	repos                       repomanager.RepositoryManager
	secretKey                   []byte
	accessTokenValidityDuration time.Duration
	logger                      logging.Logger
}

func NewUserService(db *sql.DB, repos repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:                          db,
		repos:                       repos,
		secretKey:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		logger:                      logger.With("module", "users"),
	}
}

// Login verifies the credentials and mints an access token.
func (s *UserService) Login(ctx context.Context, name, password string) (string, error) {
	user, err := s.repos.Users(s.db).GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUnauthorized
		}
		return "", common.ErrInternal
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", common.ErrUnauthorized
	}
	return auth.GenerateToken(&user.User, s.secretKey, s.accessTokenValidityDuration)
}

// Register creates a user with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, name, password string, admin bool) (*models.User, error) {
	if name == "" || password == "" {
		return nil, common.ErrIllegalArgument
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrInternal
	}
	user := &userrepo.StoredUser{
		User:         models.User{ID: uuid.NewString(), Name: name, Admin: admin},
		PasswordHash: hash,
	}
	if err := s.repos.Users(s.db).Create(ctx, user); err != nil {
		return nil, err
	}
	return &user.User, nil
}

// EnsureAdmin creates the named admin account on first run; an existing
// account is left untouched.
func (s *UserService) EnsureAdmin(ctx context.Context, name, password string) error {
	_, err := s.repos.Users(s.db).GetByName(ctx, name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return err
	}
	if _, err := s.Register(ctx, name, password, true); err != nil {
		return err
	}
	s.logger.Info(ctx, "bootstrapped admin account", "name", name)
	return nil
}
