package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"newsletter-go/pkg/models"

	"github.com/gin-gonic/gin"
)

// RequireAuth checks the bearer token against apiKey. An empty apiKey
// disables the check.
func RequireAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Detail: "missing authorization header"})
			return
		}

		// Accept "Bearer <key>" or just "<key>"
		given := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if subtle.ConstantTimeCompare([]byte(given), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Detail: "invalid API key"})
			return
		}

		c.Next()
	}
}
