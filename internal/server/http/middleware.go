package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"filerelay/internal/common"
	"filerelay/internal/server/auth"
	"filerelay/internal/server/models"
)

const userContextKey = "authenticatedUser"

// authMiddleware verifies the bearer token and stashes the identity for the
// handlers.
func authMiddleware(secretKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{ErrorCode: "UNAUTHORIZED", Message: "missing bearer token"})
			return
		}
		user, err := auth.UserFromToken(token, secretKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{ErrorCode: "INVALID_TOKEN", Message: "invalid or expired token"})
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet(userContextKey).(*models.User)
}
