package ratelimit

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Limiter applies a per-client request budget over a rolling window.
type Limiter struct {
	store  CounterStore
	limit  int64
	window time.Duration
	log    *slog.Logger
}

// NewLimiter creates a limiter over the given counter store.
func NewLimiter(store CounterStore, limit int64, window time.Duration) *Limiter {
	return &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		log:    slog.With("component", "ratelimit"),
	}
}

// Middleware rejects clients over the budget with 429. Counter store
// failures fail open: the request proceeds and the error is logged.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "rl:" + c.ClientIP()

		count, err := l.store.Incr(c.Request.Context(), key, l.window)
		if err != nil {
			l.log.Error("Counter store failed, allowing request", "key", key, "error", err)
			c.Next()
			return
		}

		if count > l.limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
