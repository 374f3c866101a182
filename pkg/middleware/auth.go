package middleware

import (
	"net/http"
	"strings"

	"appnexus-chat/backend/pkg/jwt"
	"appnexus-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// JWTAuth validates the bearer token and stores the authenticated user's
// ID and email on the context.
func JWTAuth(jwtService *jwt.Service, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must be a bearer token"})
			return
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			log.Warn("Rejected token", "error", err.Error(), "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}
