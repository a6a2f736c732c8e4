// Package ratelimit implements the per-(agent_id, tool_name) token-bucket
// limiter the dispatch layer applies to every tool call (spec §4.8 ambient
// rate limiting section).
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/sharedcontext/server/internal/errors"
)

// maxTrackedBuckets caps the lazily-created limiter map, matching the
// teacher's own "reset the map periodically to prevent memory leaks"
// safeguard (internal/middleware/ratelimit.go).
const maxTrackedBuckets = 20000

// Limiter holds one token bucket per (agent_id, tool_name) pair.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// New builds a Limiter allowing rps requests per second with the given
// burst, per agent/tool bucket.
func New(rps float64, burst int) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func bucketKey(agentID, toolName string) string {
	return agentID + ":" + toolName
}

func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()
	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, exists = l.limiters[key]; exists {
		return limiter
	}
	if len(l.limiters) > maxTrackedBuckets {
		l.limiters = make(map[string]*rate.Limiter)
	}
	limiter = rate.NewLimiter(l.rps, l.burst)
	l.limiters[key] = limiter
	return limiter
}

// Allow reports whether a call to toolName by agentID may proceed right
// now, consuming one token if so.
func (l *Limiter) Allow(agentID, toolName string) bool {
	return l.getLimiter(bucketKey(agentID, toolName)).Allow()
}

// Check is the dispatch-layer convenience wrapper returning the spec's
// RATE_LIMITED error when the bucket is exhausted.
func (l *Limiter) Check(agentID, toolName string) *errors.AppError {
	if !l.Allow(agentID, toolName) {
		return errors.RateLimited()
	}
	return nil
}
