package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/shared/auth"
	"docqa-backend/internal/shared/server/respond"
)

const (
	ownerIDKey    = "ownerId"
	ownerEmailKey = "ownerEmail"
)

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Auth validates bearer tokens and stores the owner id in context. Outside
// production an X-Guest-Id header is accepted as a guest identity.
func Auth(verifier TokenVerifier, env string) gin.HandlerFunc {
	allowGuests := env != "production"
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			token = strings.TrimSpace(token)
			if !ok || token == "" || verifier == nil {
				respond.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
				return
			}
			claims, err := verifier.Verify(token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
				return
			}
			c.Set(ownerIDKey, claims.Subject)
			if claims.Email != "" {
				c.Set(ownerEmailKey, claims.Email)
			}
			c.Set("isGuest", false)
			c.Next()
			return
		}

		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if !allowGuests || guestID == "" {
			respond.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity", nil)
			return
		}
		c.Set(ownerIDKey, "guest:"+guestID)
		c.Set("isGuest", true)
		c.Next()
	}
}

// OwnerIDFromContext fetches the owner id set by the auth middleware.
func OwnerIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(ownerIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// SetOwnerID stores an owner id, for handlers mounted without Auth in tests.
func SetOwnerID(c *gin.Context, ownerID string) {
	c.Set(ownerIDKey, ownerID)
}

// OwnerEmailFromContext returns the email claim of a bearer token, if any.
func OwnerEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(ownerEmailKey)
}
