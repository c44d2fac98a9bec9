package controller

import (
	"net/http"
	"strings"

	"ctchen222/DrawSync/internal/api/response"
	"ctchen222/DrawSync/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey   = "user.id"
	usernameKey = "user.name"
)

// RequireAuth rejects requests without a valid "Authorization: Bearer" token
// and stores the caller's id and username in the gin context.
func RequireAuth(verifier session.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.ErrorResponse(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			response.ErrorResponse(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set(userIDKey, identity.ID)
		c.Set(usernameKey, identity.Username)
		c.Next()
	}
}
