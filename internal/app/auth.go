package app

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// basicAuthMiddleware guards operator routes (/metrics, /api/admin) with
// HTTP Basic Auth. An empty password disables the check.
func basicAuthMiddleware(realm, username, password string) gin.HandlerFunc {
	challenge := `Basic realm="` + realm + `"`
	return func(c *gin.Context) {
		if password == "" {
			c.Next()
			return
		}

		user, pass, hasAuth := c.Request.BasicAuth()
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
		if !hasAuth || !userMatch || !passMatch {
			c.Header("WWW-Authenticate", challenge)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

// requireConfiguredAuth closes a route group entirely when no password is
// configured. Admin routes use it in front of basicAuthMiddleware.
func requireConfiguredAuth(password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if password == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin API disabled"})
			return
		}
		c.Next()
	}
}
