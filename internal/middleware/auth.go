package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gruhabuddy/backend/internal/config"
	"github.com/gruhabuddy/backend/pkg/jwt"
)

const userIDKey = "userID"

// Auth validates the bearer token and places the token subject in the
// request context as a uuid. Identity issuance lives elsewhere; the token
// subject is trusted here without a user-store lookup.
func Auth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims, err := jwt.ValidateToken(tokenString, cfg.JWTSecret)
		if err != nil || claims.TokenType != jwt.AccessToken {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token subject"})
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID retrieves the authenticated user's ID from the gin context
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(userIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// SetUserID places a user ID in the gin context. Intended for tests.
func SetUserID(c *gin.Context, id uuid.UUID) {
	c.Set(userIDKey, id)
}
