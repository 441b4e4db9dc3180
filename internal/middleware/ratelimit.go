// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/httprate"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/templates/go-microblog/internal/core"
	"github.com/carterperez-dev/templates/go-microblog/internal/identity"
)

type RateLimitConfig struct {
	Limit   redis_rate.Limit
	KeyFunc func(*http.Request) string
	// LocalFallback switches to a per-process token bucket while Redis is
	// unreachable. Without it requests get 503 until Redis returns.
	LocalFallback bool
}

// RateLimiter enforces a shared budget across instances through Redis.
type RateLimiter struct {
	shared *redis_rate.Limiter
	local  *localLimiter
	config RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	return &RateLimiter{
		shared: redis_rate.NewLimiter(rdb),
		local:  newLocalLimiter(),
		config: cfg,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.config.KeyFunc(r)

		res, err := rl.shared.Allow(r.Context(), key, rl.config.Limit)
		if err != nil {
			if !rl.config.LocalFallback {
				slog.ErrorContext(r.Context(), "rate limiter unavailable", "error", err)
				core.JSONError(w, core.NewAppError(err,
					"service temporarily unavailable",
					http.StatusServiceUnavailable,
					"UNAVAILABLE",
				))
				return
			}
			slog.WarnContext(r.Context(), "rate limiter using local fallback",
				"error", err,
				"key", key,
			)
			res = rl.local.allow(key, rl.config.Limit)
		}

		writeLimitHeaders(w, res)
		if res.Allowed == 0 {
			writeRateLimited(w, res.RetryAfter)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// KeyByIP keys on the connection address. chi's RealIP middleware runs
// first and has already replaced RemoteAddr with the forwarded client.
func KeyByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ratelimit:ip:" + host
}

// KeyByUser buckets signed-in users by account and guests by address.
func KeyByUser(r *http.Request) string {
	if id := identity.FromContext(r.Context()); id.IsAuthenticated() {
		return "ratelimit:user:" + id.UserID()
	}
	return KeyByIP(r)
}

// Per allows rate requests every period. A non-positive period means one
// minute.
func Per(rate, burst int, period time.Duration) redis_rate.Limit {
	if period <= 0 {
		period = time.Minute
	}
	return redis_rate.Limit{Rate: rate, Burst: burst, Period: period}
}

// LoginRateLimit caps credential attempts per client address. It runs in
// process so a Redis outage cannot lift it.
func LoginRateLimit(attempts int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(attempts, window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeRateLimited(w, window)
		}),
	)
}

func writeLimitHeaders(w http.ResponseWriter, res *redis_rate.Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy", fmt.Sprintf("%d;w=%d", res.Limit.Rate, int(res.Limit.Period.Seconds())))
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	core.JSONError(w, core.NewAppError(nil,
		fmt.Sprintf("too many requests, retry in %d seconds", secs),
		http.StatusTooManyRequests,
		"RATE_LIMITED",
	))
}

const (
	localIdleTTL    = 10 * time.Minute
	localSweepEvery = 1024
)

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter keeps one token bucket per key. Idle buckets are swept
// inline every localSweepEvery calls, so it needs no background goroutine.
type localLimiter struct {
	mu      sync.Mutex
	buckets map[string]*localBucket
	calls   int
}

func newLocalLimiter() *localLimiter {
	return &localLimiter{buckets: make(map[string]*localBucket)}
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit) *redis_rate.Result {
	now := time.Now()
	every := limit.Period / time.Duration(max(limit.Rate, 1))

	l.mu.Lock()
	l.calls++
	if l.calls%localSweepEvery == 0 {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > localIdleTTL {
				delete(l.buckets, k)
			}
		}
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &localBucket{limiter: rate.NewLimiter(rate.Every(every), max(limit.Burst, 1))}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	res := &redis_rate.Result{Limit: limit, RetryAfter: -1, ResetAfter: every}
	if b.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.RetryAfter = every
	}
	res.Remaining = max(int(b.limiter.TokensAt(now)), 0)
	return res
}
