package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// clientKey is the Gin context key of the authenticated API client.
const clientKey = "apiClient"

// BearerAuth admits requests carrying "Authorization: Bearer <token>" and
// tags them with a client identity used by the rate limiter. An empty token
// rejects everything.
func BearerAuth(token string) gin.HandlerFunc {
	want := []byte(token)
	return func(c *gin.Context) {
		got, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || len(want) == 0 || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), want) != 1 {
			c.Header("WWW-Authenticate", `Bearer realm="scooter-intake"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "missing or invalid bearer token",
			})
			return
		}
		c.Set(clientKey, "admin")
		c.Next()
	}
}

// Client returns the identity set by BearerAuth, or "".
func Client(c *gin.Context) string {
	return asString(c.Value(clientKey))
}
