package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

const ClientAddressKey = "client_address"

// ClientAddress stores the originating address on the context. With
// trustForwarded set, the first X-Forwarded-For value wins over the
// connection address. That header is client controlled, so the result only
// identifies a device for duplicate detection and must not be used for
// access control.
func ClientAddress(trustForwarded bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ClientAddressKey, resolveAddress(c, trustForwarded))
		c.Next()
	}
}

func resolveAddress(c *gin.Context, trustForwarded bool) string {
	if trustForwarded {
		if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}

// Address returns the value stored by ClientAddress.
func Address(c *gin.Context) string {
	if v := c.GetString(ClientAddressKey); v != "" {
		return v
	}
	return resolveAddress(c, false)
}
