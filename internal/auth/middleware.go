package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yourname/sleeptoggle/internal"
)

// AuthMiddleware validates the bearer token locally in development and
// against the remote provider otherwise.
func AuthMiddleware(provider Provider, env string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token := strings.TrimPrefix(header, "Bearer ")
			token = strings.TrimSpace(token)
			var user *internal.User
			var err error
			if env == "development" {
				user, err = provider.ValidateTokenLocal(token)
			} else {
				user, err = provider.ValidateTokenRemote(c.Request.Context(), token)
			}
			if err == nil {
				c.Set("user", user)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
}
