package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(trust bool, mutate func(*http.Request)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(), ClientAddress(trust))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, Address(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:54321"
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestClientAddress_ConnectionAddress(t *testing.T) {
	w := serve(true, nil)
	assert.Equal(t, "192.0.2.10", w.Body.String())
}

func TestClientAddress_ForwardedForFirstValue(t *testing.T) {
	w := serve(true, func(r *http.Request) {
		r.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	})
	assert.Equal(t, "203.0.113.7", w.Body.String())
}

func TestClientAddress_IgnoresForwardedWhenUntrusted(t *testing.T) {
	w := serve(false, func(r *http.Request) {
		r.Header.Set("X-Forwarded-For", "203.0.113.7")
	})
	assert.Equal(t, "192.0.2.10", w.Body.String())
}

func TestClientAddress_EmptyForwardedFallsBack(t *testing.T) {
	w := serve(true, func(r *http.Request) {
		r.Header.Set("X-Forwarded-For", " , 10.0.0.1")
	})
	assert.Equal(t, "192.0.2.10", w.Body.String())
}

func TestSecurityHeaders(t *testing.T) {
	w := serve(true, nil)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Permissions-Policy"), "geolocation=(self)")
}
