// filename: internal/api/server/middleware.go
package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rulesmith/rulesmith/internal/common/logging"
)

// RateLimit конфигурация rate limiting // v1.0
type RateLimit struct {
	Enabled           bool          `yaml:"enabled"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	BlockDuration     time.Duration `yaml:"block_duration"`
}

// rateLimitInfo состояние rate limit для одного клиента // v1.0
type rateLimitInfo struct {
	Count      int
	LastReset  time.Time
	Blocked    bool
	BlockUntil time.Time
}

// rateLimitMiddleware ограничивает частоту запросов по IP клиента // v1.0
func rateLimitMiddleware(limit RateLimit) gin.HandlerFunc {
	clients := make(map[string]*rateLimitInfo)
	var mu sync.Mutex

	blockDuration := limit.BlockDuration
	if blockDuration <= 0 {
		blockDuration = time.Minute
	}

	return func(c *gin.Context) {
		key := c.ClientIP()

		mu.Lock()
		info, exists := clients[key]
		if !exists {
			info = &rateLimitInfo{LastReset: time.Now()}
			clients[key] = info
		}

		if info.Blocked && time.Now().Before(info.BlockUntil) {
			retryAfter := time.Until(info.BlockUntil).Seconds()
			mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": retryAfter,
			})
			c.Abort()
			return
		}

		if time.Since(info.LastReset) >= time.Minute {
			info.Count = 0
			info.LastReset = time.Now()
			info.Blocked = false
		}

		if info.Count >= limit.RequestsPerMinute {
			info.Blocked = true
			info.BlockUntil = time.Now().Add(blockDuration)
			mu.Unlock()

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": blockDuration.Seconds(),
			})
			c.Abort()
			return
		}

		info.Count++
		remaining := limit.RequestsPerMinute - info.Count
		reset := info.LastReset.Add(time.Minute).Unix()
		mu.Unlock()

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit.RequestsPerMinute))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", reset))

		c.Next()
	}
}

// requestIDMiddleware добавляет request ID // v1.0
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)

		c.Next()
	}
}

// loggingMiddleware добавляет логирование запросов // v1.0
func loggingMiddleware(logger *logging.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		requestID := param.Keys["request_id"]

		logger.Logger.WithFields(map[string]interface{}{
			"method":     param.Method,
			"path":       param.Path,
			"status":     param.StatusCode,
			"latency":    param.Latency,
			"client_ip":  param.ClientIP,
			"user_agent": param.Request.UserAgent(),
			"request_id": requestID,
		}).Info("HTTP request")

		return ""
	})
}
