// Package auth mints and verifies the HS256 bearer tokens that identify
// coordinator users.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"filerelay/internal/common"
	"filerelay/internal/server/models"
)

// Claims includes the registered claims plus the user identity consumed by
// the permission checks.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"uid"`
	UserName string `json:"uname"`
	Admin    bool   `json:"admin"`
}

// GenerateToken mints a signed token for the user.
func GenerateToken(user *models.User, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID:   user.ID,
		UserName: user.Name,
		Admin:    user.Admin,
	})

	return token.SignedString(secretKey)
}

// UserFromToken verifies the token signature and expiry and returns the
// embedded identity.
func UserFromToken(tokenString string, secretKey []byte) (*models.User, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return &models.User{ID: claims.UserID, Name: claims.UserName, Admin: claims.Admin}, nil
}
