package middleware

import (
	"net/http"

	"github.com/rs/cors"
	"github.com/openrelief/aidbridge/internal/origin"
	"github.com/openrelief/aidbridge/internal/request"
)

// corsDeniedBody is the fixed plain-text body sent with origin rejections.
const corsDeniedBody = "Not allowed by CORS"

// CORS creates middleware that enforces the origin policy. Disallowed
// origins are rejected with 403 before the handler runs; allowed and
// absent origins fall through to rs/cors for header emission and
// preflight handling.
func CORS(policy *origin.Policy) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowOriginFunc:  policy.Allows,
		AllowCredentials: policy.AllowCredentials(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", request.HeaderRequestID},
		MaxAge:           86400,
	})

	return func(next http.Handler) http.Handler {
		wrapped := c.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if o := r.Header.Get("Origin"); o != "" {
				decision, norm := policy.Evaluate(o)
				if decision == origin.DecisionDenied {
					http.Error(w, corsDeniedBody, http.StatusForbidden)
					return
				}
				// rs/cors echoes the request's Origin value verbatim into
				// Access-Control-Allow-Origin; rewrite it to the normalized
				// form so the emitted header matches the configured origin.
				r.Header.Set("Origin", norm)
			}
			wrapped.ServeHTTP(w, r)
		})
	}
}
