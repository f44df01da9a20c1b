package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arnabmitra/topcap-index/internal/apierror"
)

// RateLimiter allows MaxRate requests per client address in each Period.
// Counters live in redis so every replica shares them.
type RateLimiter struct {
	Period  time.Duration
	MaxRate int64
	Store   redis.Scripter
	Logger  *slog.Logger
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count, err := rl.hit(r.Context(), clientAddr(r))
		if err != nil {
			// redis down: let the request through
			if rl.Logger != nil {
				rl.Logger.Warn("rate limiter unavailable", slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}

		remaining := max(rl.MaxRate-count, 0)
		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(rl.MaxRate, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > rl.MaxRate {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.Period.Seconds())))
			apierror.Write(w, r, apierror.RateLimited())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// hitScript counts a request and starts the window when the counter has no
// expiry, so a counter is never left without one.
var hitScript = redis.NewScript(`
local n = redis.call("incr", KEYS[1])
if redis.call("pttl", KEYS[1]) < 0 then
	redis.call("pexpire", KEYS[1], ARGV[1])
end
return n
`)

// hit increments the window counter for addr and returns the new count.
// The window starts with the first request.
func (rl *RateLimiter) hit(ctx context.Context, addr string) (int64, error) {
	key := fmt.Sprintf("ratelimit:%s", addr)
	return hitScript.Run(ctx, rl.Store, []string{key}, rl.Period.Milliseconds()).Int64()
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
