package middleware

import "github.com/gin-gonic/gin"

// SecurityHeaders sets the response headers every page and API reply
// carries. Geolocation stays allowed for same-origin scripts because the
// sign-in page needs it.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(self)")
		c.Next()
	}
}
