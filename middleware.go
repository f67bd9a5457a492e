package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	util "wordshift/internal/util"
)

func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		}
		c.Next()
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.Request.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header("X-Request-Id", reqID)
		c.Next()
	}
}

type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func (app *serverApp) getLimiter(key string) *rate.Limiter {
	app.limiterMu.RLock()
	entry, ok := app.limiterMap[key]
	app.limiterMu.RUnlock()
	if ok {
		app.limiterMu.Lock()
		if entry, ok = app.limiterMap[key]; ok {
			entry.lastAccess = time.Now()
		}
		app.limiterMu.Unlock()
		return entry.limiter
	}

	app.limiterMu.Lock()
	defer app.limiterMu.Unlock()
	if entry, ok = app.limiterMap[key]; ok {
		entry.lastAccess = time.Now()
		return entry.limiter
	}

	rps := app.rateLimitRPS
	if rps <= 0 {
		rps = 1
	}
	lim := rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), app.rateLimitBurst)
	app.limiterMap[key] = &rateLimiterEntry{limiter: lim, lastAccess: time.Now()}
	return lim
}

// rateLimitMiddleware is the coarse per-IP token bucket in front of mutating
// lobby routes, separate from the adaptive limiter on the moderation
// endpoint.
func (app *serverApp) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !app.getLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "Too many requests. Please slow down."})
			return
		}
		c.Next()
	}
}

func (app *serverApp) cleanupStaleRateLimiters() {
	app.limiterMu.Lock()
	defer app.limiterMu.Unlock()

	cutoff := time.Now().Add(-app.rateLimiterTTL)
	removed := 0
	for key, entry := range app.limiterMap {
		if entry.lastAccess.Before(cutoff) {
			delete(app.limiterMap, key)
			removed++
		}
	}
	if removed > 0 {
		util.LogInfo("Cleaned up %d stale rate limiters", removed)
	}
}
