package http

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"fintrack/auth"
	"fintrack/observability"
)

// RateLimitMiddleware limits authenticated callers per user and anonymous
// callers per client IP.
func RateLimitMiddleware(
	limiter *RateLimiter,
	metrics *observability.Metrics,
	next http.Handler,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, retryAfter := limiter.Allow(limitKey(r))
		if !allowed {
			if metrics != nil {
				metrics.RateLimited.Inc()
			}
			seconds := int(math.Ceil(retryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func limitKey(r *http.Request) string {
	if userID, ok := auth.UserID(r.Context()); ok {
		return "user:" + userID
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}
