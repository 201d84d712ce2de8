package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/civictrack/civictrack-backend/api/responses"
	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
	"github.com/civictrack/civictrack-backend/pkg/logger"
	"github.com/civictrack/civictrack-backend/pkg/metrics"
)

const (
	limiterIdleTTL  = 10 * time.Minute
	limiterCapacity = 4096
)

// IPRateLimit is an in-process token bucket per client IP, used on the
// upload proxy so one caller cannot monopolise the image host quota. Idle
// buckets expire from an LRU.
func IPRateLimit(name string, perSecond float64, burst int, m *metrics.HTTPMetrics, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if perSecond <= 0 || burst <= 0 {
			return next
		}
		buckets := expirable.NewLRU[string, *rate.Limiter](limiterCapacity, nil, limiterIdleTTL)
		retryAfter := formatSeconds(time.Duration(float64(time.Second) / perSecond))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if ip == "" {
				ip = "unknown"
			}
			lim, ok := buckets.Get(ip)
			if !ok {
				lim = rate.NewLimiter(rate.Limit(perSecond), burst)
				buckets.Add(ip, lim)
			}
			if !lim.Allow() {
				m.IncRateLimited(name)
				if logg != nil {
					logg.Warn(logg.WithFields(r.Context(), map[string]any{"policy": name, "ip": ip}), "rate_limit.blocked")
				}
				w.Header().Set("Retry-After", retryAfter)
				responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "Too many requests, please try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// formatSeconds renders d as a Retry-After value, rounding up to at least 1.
func formatSeconds(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
