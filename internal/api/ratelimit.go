package api

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voicehouse/outreach/internal/pkg/httputil"
	"github.com/voicehouse/outreach/internal/pkg/logger"
)

// RateLimiter applies a per-client request budget using an atomic
// Redis Lua script. GET -> check -> INCR patterns race under load;
// the script checks and increments in one round trip.
type RateLimiter struct {
	redis  *redis.Client
	script *redis.Script
	limit  int
}

const rateLimitLuaScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])

local current = tonumber(redis.call("GET", key) or "0")
if current + 1 > limit then
    return {0, current}
end

local newVal = redis.call("INCR", key)
if newVal == 1 then
    redis.call("EXPIRE", key, ttl)
end

return {1, newVal}
`

// NewRateLimiter creates a limiter allowing limit requests per client
// per minute. A nil Redis client disables limiting.
func NewRateLimiter(redisClient *redis.Client, limit int) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		script: redis.NewScript(rateLimitLuaScript),
		limit:  limit,
	}
}

// Middleware enforces the limit per client IP with minute bucketing.
// Redis failures fail open: a broken limiter must not take the API
// down with it.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl == nil || rl.redis == nil {
			next.ServeHTTP(w, r)
			return
		}

		now := time.Now()
		key := fmt.Sprintf("ratelimit:api:%s:%d", clientIP(r), now.Unix()/60)

		result, err := rl.script.Run(r.Context(), rl.redis, []string{key}, rl.limit, 120).Slice()
		if err != nil {
			logger.Warn("rate limit check failed", "error", err.Error())
			next.ServeHTTP(w, r)
			return
		}

		if result[0].(int64) == 0 {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", 60-now.Second()))
			httputil.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP relies on middleware.RealIP having rewritten RemoteAddr
// from the forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
