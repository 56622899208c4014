package server

// Pre-parse admission control: token buckets refilled on access, one global
// bucket plus one per client IP. Checking happens before any byte of the
// datagram is parsed, so malformed floods are as cheap to shed as valid ones.

import (
	"sync"
	"time"
)

// RateLimitSettings configures the limiter. Zero QPS disables a scope.
type RateLimitSettings struct {
	GlobalQPS    float64
	GlobalBurst  int
	IPQPS        float64
	IPBurst      int
	MaxIPEntries int
}

// RateLimiter is a token-bucket limiter keyed by client IP with a global
// ceiling. Safe for concurrent use.
type RateLimiter struct {
	settings RateLimitSettings

	mu     sync.Mutex
	global *bucket
	perIP  map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
	qps    float64
	burst  float64
}

func newBucket(qps float64, burst int, now time.Time) *bucket {
	return &bucket{tokens: float64(burst), last: now, qps: qps, burst: float64(burst)}
}

// take refills by elapsed time and spends one token if available.
func (b *bucket) take(now time.Time) bool {
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens = min(b.burst, b.tokens+elapsed*b.qps)
		b.last = now
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// NewRateLimiter creates a limiter from settings.
func NewRateLimiter(settings RateLimitSettings) *RateLimiter {
	now := time.Now()
	l := &RateLimiter{
		settings: settings,
		perIP:    make(map[string]*bucket),
	}
	if settings.GlobalQPS > 0 {
		l.global = newBucket(settings.GlobalQPS, settings.GlobalBurst, now)
	}
	return l
}

// Allow reports whether a datagram from ip may be processed.
func (l *RateLimiter) Allow(ip string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.global != nil && !l.global.take(now) {
		return false
	}
	if l.settings.IPQPS <= 0 {
		return true
	}

	b, ok := l.perIP[ip]
	if !ok {
		// Bound the map: when full, shed buckets that have fully refilled —
		// their owners have been quiet long enough to start fresh.
		if len(l.perIP) >= l.settings.MaxIPEntries {
			l.evictIdle(now)
		}
		if len(l.perIP) >= l.settings.MaxIPEntries {
			return false
		}
		b = newBucket(l.settings.IPQPS, l.settings.IPBurst, now)
		l.perIP[ip] = b
	}
	return b.take(now)
}

func (l *RateLimiter) evictIdle(now time.Time) {
	for ip, b := range l.perIP {
		elapsed := now.Sub(b.last).Seconds()
		if b.tokens+elapsed*b.qps >= b.burst {
			delete(l.perIP, ip)
		}
	}
}
