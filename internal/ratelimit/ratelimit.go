package ratelimit

import (
	"sync"
	"time"

	"wanderpress/internal/logger"
)

// ServiceLimiter tracks per-day request budgets for the external rewrite
// and image-search services. Budgets of 0 mean unlimited.
type ServiceLimiter struct {
	mu           sync.Mutex
	rewriteCount int
	imageCount   int
	maxRewrite   int
	maxImage     int
	resetTime    time.Time
}

func NewServiceLimiter(maxRewrite, maxImage int) *ServiceLimiter {
	return &ServiceLimiter{
		maxRewrite: maxRewrite,
		maxImage:   maxImage,
		resetTime:  time.Now().Add(24 * time.Hour), // Reset daily
	}
}

// CanUseRewrite checks if we can make one more rewrite request.
func (rl *ServiceLimiter) CanUseRewrite() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.checkReset()

	if rl.maxRewrite > 0 && rl.rewriteCount >= rl.maxRewrite {
		logger.Warn("rewrite rate limit reached", "used", rl.rewriteCount, "max", rl.maxRewrite)
		return false
	}
	return true
}

// CanUseImageSearch checks if we can make one more image search request.
func (rl *ServiceLimiter) CanUseImageSearch() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.checkReset()

	if rl.maxImage > 0 && rl.imageCount >= rl.maxImage {
		logger.Warn("image search rate limit reached", "used", rl.imageCount, "max", rl.maxImage)
		return false
	}
	return true
}

func (rl *ServiceLimiter) RecordRewrite() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.checkReset()
	rl.rewriteCount++
}

func (rl *ServiceLimiter) RecordImageSearch() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.checkReset()
	rl.imageCount++
}

// GetUsage returns current counters for the stats endpoint.
func (rl *ServiceLimiter) GetUsage() map[string]int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]int{
		"rewrite_used": rl.rewriteCount,
		"rewrite_max":  rl.maxRewrite,
		"image_used":   rl.imageCount,
		"image_max":    rl.maxImage,
	}
}

func (rl *ServiceLimiter) checkReset() {
	if time.Now().After(rl.resetTime) {
		rl.rewriteCount = 0
		rl.imageCount = 0
		rl.resetTime = time.Now().Add(24 * time.Hour)
	}
}
