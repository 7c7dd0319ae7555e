package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// RequireAdminToken guards the admin API with a bearer token checked against
// a bcrypt hash. An empty hash rejects every request.
func RequireAdminToken(hash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hash == "" {
			respondError(c, http.StatusServiceUnavailable, "ADMIN_DISABLED", "Admin API is not configured")
			return
		}

		token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		token = strings.TrimSpace(token)
		if !found || token == "" {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			return
		}
		c.Next()
	}
}
