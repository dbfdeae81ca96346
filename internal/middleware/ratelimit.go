package middleware

import (
	"math"
	"net/http"
	"regexp"
	"strconv"

	"go.uber.org/zap"

	logpkg "github.com/openrelief/aidbridge/internal/logger"
	"github.com/openrelief/aidbridge/internal/ratelimit"
	"github.com/openrelief/aidbridge/internal/request"
)

// exemptPathPattern matches routes that bypass rate limiting entirely:
// operational probes must never be throttled. This is compiled-in policy,
// not configuration.
var exemptPathPattern = regexp.MustCompile(`^/(health|healthz|metrics|docs|api-docs|swagger|openapi)([/.].*)?$`)

// RateLimit creates admission middleware backed by a window store. Every
// non-exempt request is charged on entry; rejected requests get 429 with a
// Retry-After hint. Store failures admit the request rather than fail it.
func RateLimit(store ratelimit.Store, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exemptPathPattern.MatchString(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			key := request.ClientKey(r)
			res, err := store.Take(r.Context(), key)
			if err != nil {
				// Fail open: limiter trouble must not take down traffic.
				logger.Warn("rate_limit_store_error",
					zap.Error(err),
					zap.String("key", logpkg.SanitizeString(key, logpkg.MaxGeneralStringLength)),
				)
				next.ServeHTTP(w, r)
				return
			}

			resetSeconds := int(math.Ceil(res.ResetAfter.Seconds()))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetSeconds))

			if !res.Allowed {
				logger.Warn("rate_limit_exceeded",
					zap.String("key", logpkg.SanitizeString(key, logpkg.MaxGeneralStringLength)),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.Int("limit", res.Limit),
					zap.Int("retry_after_s", resetSeconds),
				)
				w.Header().Set("Retry-After", strconv.Itoa(resetSeconds))
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
