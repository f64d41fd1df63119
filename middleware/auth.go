package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mediaforge/mediaforge/common"
)

// UserIDKey is the gin context key the authenticated user id is stored
// under.
const UserIDKey = "userID"

// RequireUser trusts the X-User-ID header set by the gateway in front of
// this service. Token verification happens there; a missing header means
// the request bypassed it.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.Error(common.Errf(http.StatusUnauthorized, "missing user identity"))
			c.Abort()
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user id set by RequireUser.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
