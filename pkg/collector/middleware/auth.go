package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/safeops/logcollector/pkg/auth"
)

// Auth guards private routes with the x-auth-token header the dashboard
// already sends.
func Auth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("x-auth-token")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "No token, authorization denied"})
			return
		}
		claims, err := tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Token is not valid"})
			return
		}
		c.Set("user_id", claims.UserID)
		c.Next()
	}
}
