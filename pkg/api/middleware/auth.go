package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Auth returns a middleware that validates the API key. An empty configured
// key disables authentication.
func Auth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-Key") != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}
