package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskflow/internal/models"
	"taskflow/internal/services"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
	ContextUser   = "user"
)

type TokenParser interface {
	ParseToken(token string) (*services.Claims, error)
}

type UserLoader interface {
	Get(ctx context.Context, id int64) (*models.User, error)
}

// public endpoints that need no token
func isPublicPath(path string) bool {
	switch path {
	case "/login", "/healthz", "/metrics":
		return true
	}
	return strings.HasPrefix(path, "/swagger")
}

// tokenFrom reads the bearer token, then the session cookie, then the token
// query parameter used by websocket clients.
func tokenFrom(c *gin.Context, cookieName string) string {
	if h := strings.TrimSpace(c.GetHeader("Authorization")); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if v, err := c.Cookie(cookieName); err == nil && v != "" {
		return v
	}
	return c.Query("token")
}

// AuthMiddleware authenticates the request and loads the current user, who
// must still be active.
func AuthMiddleware(tokens TokenParser, users UserLoader, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		raw := tokenFrom(c, cookieName)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		claims, err := tokens.ParseToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		user, err := users.Get(c.Request.Context(), claims.UserID)
		if err != nil || !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account is not active"})
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextRole, user.Role)
		c.Set(ContextUser, user)
		c.Next()
	}
}

// CurrentUser returns the user loaded by AuthMiddleware.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
