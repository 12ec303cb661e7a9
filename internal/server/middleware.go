package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/samuhcosta/meu-bolso-backend/internal/auth"
)

// userIDKey is the gin context key for the authenticated user ID.
const userIDKey = "user_id"

// GetUserID extracts the authenticated user ID from the gin context.
// Returns empty string if not found.
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get(userIDKey)
	id, _ := userID.(string)
	return id
}

// RequireAuth validates the Bearer token and stores the user ID on the
// request context.
func RequireAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrMissingToken.Error()})
			return
		}

		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidToken.Error()})
			return
		}

		claims, err := jwtManager.Validate(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidToken.Error()})
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// RequestLogger logs every request with method, path, status, user and
// duration.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Milliseconds()
		status := c.Writer.Status()
		userID := GetUserID(c)

		if status >= http.StatusInternalServerError {
			slog.Error("Request failed",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"status", status,
				"user_id", userID,
				"duration_ms", duration,
			)
		} else {
			slog.Info("Request completed",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"status", status,
				"user_id", userID,
				"duration_ms", duration,
			)
		}
	}
}
