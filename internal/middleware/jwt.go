package middleware

import (
	"context"
	"net/http"
	"strings"

	"echo-diary/internal/logger"
	"echo-diary/internal/model"
	"echo-diary/internal/service"

	"github.com/gin-gonic/gin"
)

const userKey = "user"

// Authenticator resolves a bearer token to the stored user it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*model.User, error)
}

func JWTAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		u, err := auth.Authenticate(c.Request.Context(), strings.TrimSpace(header[7:]))
		if err != nil {
			logger.Warn("auth.token.rejected", "path", c.FullPath(), "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

// RequireAdmin must run after JWTAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := service.AuthorizeAdmin(CurrentUser(c)); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*model.User)
	return u
}
