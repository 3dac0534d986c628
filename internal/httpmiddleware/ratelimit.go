package httpmiddleware

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"hrattendance/internal/auth"
	"hrattendance/internal/metrics"
)

// Limiter decides whether one more request fits into key's budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// KeyFunc picks the budget a request is charged to.
type KeyFunc func(c *gin.Context) string

// ByClientIP charges the remote address. Use it before authentication.
func ByClientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return "ip:" + ip
	}
	return "ip:unknown"
}

// ByCaller charges the bearer subject, so one employee cannot exhaust the
// budget of others behind the same proxy. Falls back to the client IP when
// no claims are set; mount it after auth.Bearer.
func ByCaller(c *gin.Context) string {
	if claims, ok := auth.FromContext(c); ok && claims.Subject != "" {
		return "sub:" + claims.Subject
	}
	return ByClientIP(c)
}

// RateLimit answers 429 once key's budget is spent. A failing limiter lets the
// request through.
func RateLimit(l Limiter, scope string, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := l.Allow(c.Request.Context(), key(c))
		if err != nil {
			log.Printf("rate limit %s: %v", scope, err)
			c.Next()
			return
		}
		if !ok {
			metrics.RateLimited.WithLabelValues(scope).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}
