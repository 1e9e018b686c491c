package middleware

import (
	"math"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/muurk/nanohttp"
	"github.com/muurk/nanohttp/internal/logging"
)

// RateLimitConfig configures RateLimit
type RateLimitConfig struct {
	// RPS is the sustained request rate per key. Defaults to 5.
	RPS float64
	// Burst is the number of requests allowed at once. Defaults to 10.
	Burst int
	// Key selects the bucket of a request. Defaults to the peer address.
	Key func(req *nanohttp.Request) string
	// Logger receives rejected requests. Defaults to the process-wide logger.
	Logger *zap.Logger
}

// limiterPool holds one token bucket per key
type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   rate.Limit
	burst int
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.m[key]; ok {
		return l
	}
	l := rate.NewLimiter(p.rps, p.burst)
	p.m[key] = l
	return l
}

// RateLimit rejects requests over the configured rate with 429 Too Many
// Requests and a Retry-After header
func RateLimit(cfg RateLimitConfig) nanohttp.Middleware {
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.Key == nil {
		cfg.Key = func(req *nanohttp.Request) string { return req.Address }
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetLogger()
	}

	pool := &limiterPool{
		m:     make(map[string]*rate.Limiter),
		rps:   rate.Limit(cfg.RPS),
		burst: cfg.Burst,
	}
	retryAfter := strconv.Itoa(int(math.Ceil(1 / cfg.RPS)))

	return func(req *nanohttp.Request) *nanohttp.Response {
		key := cfg.Key(req)
		if pool.get(key).Allow() {
			return nil
		}
		cfg.Logger.Warn("Request rate limited",
			zap.String("key", key),
			zap.String("method", req.Method),
			zap.String("path", req.Path),
		)
		return nanohttp.TooManyRequests(nanohttp.TextBody("Too many requests")).
			SetHeader("Retry-After", retryAfter)
	}
}
