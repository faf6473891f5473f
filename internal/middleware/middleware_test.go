package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smart-pdf-chatbot/internal/config"
	"smart-pdf-chatbot/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(jwt *token.JWTManager, limiter *SessionLimiter) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", SessionAuth(jwt), RateLimit(limiter), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("sessionID"))
	})
	return r
}

func TestSessionAuth(t *testing.T) {
	jwt := token.NewJWTManager("secret", time.Hour)
	r := newRouter(jwt, nil)
	tok, err := jwt.GenerateToken("abc")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + tok, status: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + tok, status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "abc", w.Body.String())
			}
		})
	}
}

func TestRateLimit_PerSession(t *testing.T) {
	jwt := token.NewJWTManager("secret", time.Hour)
	limiter := NewSessionLimiter(config.RateLimitConfig{RPS: 0.001, Burst: 1})
	r := newRouter(jwt, limiter)

	do := func(session string) int {
		tok, _ := jwt.GenerateToken(session)
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("a"))
	assert.Equal(t, http.StatusTooManyRequests, do("a"))
	assert.Equal(t, http.StatusOK, do("b"))
}

func TestNewSessionLimiter_DisabledAndSweep(t *testing.T) {
	assert.Nil(t, NewSessionLimiter(config.RateLimitConfig{RPS: 0}))

	l := NewSessionLimiter(config.RateLimitConfig{RPS: 1, Burst: 2})
	l.Get("a")
	l.Get("b")
	assert.Equal(t, 0, l.Sweep(time.Hour))
	assert.Equal(t, 2, l.Sweep(-time.Second))
}
