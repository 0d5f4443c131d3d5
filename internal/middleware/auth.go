package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenKey is the gin context key holding the caller's bearer token.
const TokenKey = "token"

// AuthMiddleware requires an "Authorization: Bearer <token>" header and stores
// the raw token for handlers. Whether the token is valid for the route's role
// is decided by the services.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(TokenKey, token)
		c.Next()
	}
}

// Token returns the bearer token stored by AuthMiddleware.
func Token(c *gin.Context) string {
	return c.GetString(TokenKey)
}
