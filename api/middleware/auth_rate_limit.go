package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/civictrack/civictrack-backend/api/responses"
	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
	"github.com/civictrack/civictrack-backend/pkg/logger"
	"github.com/civictrack/civictrack-backend/pkg/metrics"
	"github.com/civictrack/civictrack-backend/pkg/redis"
)

// maxAuthBody bounds how much of a login or register body is buffered to
// read the email.
const maxAuthBody = 64 * 1024

// AuthRateLimitPolicy defines the throttling parameters for a traffic surface.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

// NewAuthRateLimitPolicy builds a policy with the supplied window and limits.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		name:       strings.ToLower(strings.TrimSpace(name)),
		window:     window,
		ipLimit:    ipLimit,
		emailLimit: emailLimit,
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

func (p AuthRateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "auth"
	}
	return p.name
}

func (p AuthRateLimitPolicy) scope(kind, value string) string {
	return p.normalizedName() + ":" + kind + ":" + value
}

// AuthRateLimit enforces fixed-window per-IP and per-email counters on the
// login and register endpoints. A nil limiter disables the policy.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter redis.RateLimiter, m *metrics.HTTPMetrics, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}

		// hit returns false when the request was answered here.
		hit := func(w http.ResponseWriter, r *http.Request, kind, value string, limit int) bool {
			ctx := r.Context()
			win, err := limiter.FixedWindowAllow(ctx, policy.scope(kind, value), int64(limit), policy.window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return false
			}
			if win.Allowed {
				return true
			}
			m.IncRateLimited(policy.normalizedName())
			w.Header().Set("Retry-After", formatSeconds(win.ResetIn))
			logBlocked(logg, r, policy, kind, value, win, limit)
			responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "Too many requests, please try again later"))
			return false
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := clientIP(r); policy.ipLimit > 0 && ip != "" {
				if !hit(w, r, "ip", ip, policy.ipLimit) {
					return
				}
			}

			if policy.emailLimit > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxAuthBody))
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				if email := normalizeEmail(extractEmail(body)); email != "" {
					if !hit(w, r, "email", hashValue(email), policy.emailLimit) {
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// logBlocked records the rejection. Emails are only ever logged hashed.
func logBlocked(logg *logger.Logger, r *http.Request, policy AuthRateLimitPolicy, kind, value string, win redis.Window, limit int) {
	if logg == nil {
		return
	}
	key := "ip"
	if kind == "email" {
		key = "email_hash"
	}
	ctx := logg.WithFields(r.Context(), map[string]any{
		"scope":         kind,
		"policy":        policy.normalizedName(),
		"attempts":      win.Count,
		"limit":         limit,
		"reset_seconds": int(win.ResetIn.Seconds()),
		key:             value,
	})
	logg.Warn(ctx, "auth.rate_limit.blocked")
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Email
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
