package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"siwf/internal/platform/ratelimiter"
)

// RateLimit rejects requests from a client IP that exceed its token bucket.
// A nil limiter disables the check.
func RateLimit(limiter *ratelimiter.KeyedLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow(c.ClientIP(), time.Now()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   gin.H{"code": "RATE_LIMITED", "message": "too many requests"},
			})
			return
		}
		c.Next()
	}
}
