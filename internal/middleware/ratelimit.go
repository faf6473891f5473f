package middleware

import (
	"net/http"
	"sync"
	"time"

	"smart-pdf-chatbot/internal/config"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// SessionLimiter 为每个会话维护一个令牌桶，限制调用模型的频率。
type SessionLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*sessionEntry
}

type sessionEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewSessionLimiter 按配置创建 SessionLimiter；RPS <= 0 时返回 nil，表示不限流。
func NewSessionLimiter(cfg config.RateLimitConfig) *SessionLimiter {
	if cfg.RPS <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &SessionLimiter{
		limit:    rate.Limit(cfg.RPS),
		burst:    burst,
		limiters: make(map[string]*sessionEntry),
	}
}

// Get 返回会话对应的 limiter，首次访问时创建。
func (l *SessionLimiter) Get(sessionID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.limiters[sessionID]
	if !ok {
		e = &sessionEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[sessionID] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

// Sweep 删除超过 idle 未使用的会话 limiter。
func (l *SessionLimiter) Sweep(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := time.Now().Add(-idle)
	removed := 0
	for id, e := range l.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(l.limiters, id)
			removed++
		}
	}
	return removed
}

// RateLimit 必须在 SessionAuth 之后使用。l 为 nil 时直接放行。
func RateLimit(l *SessionLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		if !l.Get(c.GetString("sessionID")).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "请求过于频繁，请稍后重试"})
			return
		}
		c.Next()
	}
}
