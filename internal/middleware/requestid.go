package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/openrelief/aidbridge/internal/request"
)

// RequestID creates middleware that adopts a caller-supplied X-Request-Id
// verbatim or generates a fresh one, stores it in the request context, and
// echoes it on the response. Correlation is per-request: concurrent
// requests never observe each other's value.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(request.HeaderRequestID)
		if id == "" {
			id = newRequestID()
		}
		w.Header().Set(request.HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(request.WithID(r.Context(), id)))
	})
}

// newRequestID returns a 32-character uppercase hex identifier. UUIDv4
// underneath, so collisions within a process lifetime are negligible.
func newRequestID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
