package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// apiKeyAuth protects read endpoints. Keys travel in the Authorization
// header as "Bearer <key>"; a missing header and an unknown key are
// distinguished so clients can tell a misconfiguration from a revocation.
func apiKeyAuth(keys []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key != "" {
			allowed[key] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody(
				"AUTH_REQUIRED", `authorization header "Bearer <api_key>" is required`, nil,
			))
			return
		}
		key := strings.TrimPrefix(header, "Bearer ")
		if _, ok := allowed[key]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody(
				"INVALID_API_KEY", "invalid API key", nil,
			))
			return
		}
		c.Next()
	}
}

type rateWindow struct {
	count int
	reset time.Time
}

// rateLimit enforces a fixed-window per-IP cap on admissions. State is
// in-process only, matching the single-process deployment of the store.
func rateLimit(limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if window <= 0 {
		window = time.Hour
	}

	var mu sync.Mutex
	windows := make(map[string]*rateWindow)

	return func(c *gin.Context) {
		now := time.Now()
		ip := c.ClientIP()

		mu.Lock()
		w := windows[ip]
		if w == nil || now.After(w.reset) {
			w = &rateWindow{reset: now.Add(window)}
			windows[ip] = w
		}
		w.count++
		over := w.count > limit
		mu.Unlock()

		if over {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody(
				"RATE_LIMIT_EXCEEDED", "too many requests, try again later", nil,
			))
			return
		}
		c.Next()
	}
}
