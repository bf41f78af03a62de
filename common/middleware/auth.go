package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/admin5fedu/duraval-app-sub010/common/auth"
	"github.com/gin-gonic/gin"
)

const UserContextKey = "userID"

// AuthMiddleware resolves the acting user from a Bearer token, falling back to
// the X-User-ID header (or user_id cookie) injected by the API gateway.
func AuthMiddleware(parser *auth.TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID string
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			claims, err := parser.ParseAndValidateToken(strings.TrimPrefix(h, "Bearer "), "")
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
				return
			}
			userID = auth.Subject(claims)
		}
		if userID == "" {
			userID = strings.TrimSpace(c.GetHeader("X-User-ID"))
		}
		if userID == "" {
			if v, err := c.Cookie("user_id"); err == nil {
				userID = strings.TrimSpace(v)
			}
		}

		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(UserContextKey, userID)
		c.Next()
	}
}

// GetUserID extracts the user ID from the Gin context.
func GetUserID(c *gin.Context) (string, error) {
	if id := c.GetString(UserContextKey); id != "" {
		return id, nil
	}
	return "", errors.New("user ID not found in context")
}
