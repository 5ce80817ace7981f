package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenAuthConfig configures bearer-token authentication for the
// control plane. An empty token disables the check; the server binds
// to localhost so that is the common single-user setup.
type TokenAuthConfig struct {
	Token string
}

// TokenAuth validates the control-plane token from the Authorization
// header, falling back to a ?token query parameter for browser use.
func TokenAuth(cfg TokenAuthConfig) gin.HandlerFunc {
	if cfg.Token == "" {
		slog.Info("control plane auth disabled")
		return func(c *gin.Context) {
			c.Next()
		}
	}
	slog.Info("control plane auth enabled")

	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			token = c.Query("token")
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Token)) != 1 {
			slog.Debug("invalid control plane token", "ip", c.ClientIP(), "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set("authenticated", true)
		c.Next()
	}
}
