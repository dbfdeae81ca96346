package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	logpkg "github.com/openrelief/aidbridge/internal/logger"
	"github.com/openrelief/aidbridge/internal/request"
)

// ErrorResponse is the canonical error record: every failure leaving the
// service has this shape, no matter which layer raised it.
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details"`
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
}

// HandlerFunc is a business handler that reports failure by returning an
// error instead of writing its own error response.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// Normalizer is the single terminal error boundary: it classifies handler
// errors and recovered panics into canonical records. No error reaches the
// caller in any other shape.
type Normalizer struct {
	logger *zap.Logger
	// exposeStack gates raw stack traces in unclassified-error details.
	// Only ever true in development-like environments.
	exposeStack bool
}

// NewNormalizer creates a failure normalizer.
func NewNormalizer(logger *zap.Logger, exposeStack bool) *Normalizer {
	return &Normalizer{logger: logger, exposeStack: exposeStack}
}

// Wrap adapts a HandlerFunc into an http.HandlerFunc. A returned error or
// a panic is classified and written as the canonical record; a nil return
// leaves the handler's own response untouched.
func (n *Normalizer) Wrap(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				n.respond(w, r, n.classify(panicError(rec), debug.Stack()))
			}
		}()
		if err := fn(w, r); err != nil {
			n.respond(w, r, n.classify(err, nil))
		}
	}
}

// Recover creates middleware catching panics from handlers that do not go
// through Wrap, so nothing escapes the boundary.
func (n *Normalizer) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				n.respond(w, r, n.classify(panicError(rec), debug.Stack()))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("%v", rec)
}

// respond writes the canonical record and emits the classification log
// line. Logging is a side effect, not part of the response contract.
func (n *Normalizer) respond(w http.ResponseWriter, r *http.Request, c classification) {
	record := ErrorResponse{
		Code:      c.status,
		Message:   c.message,
		Details:   c.details,
		RequestID: request.ID(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
	}

	n.logger.Error("request_failed",
		zap.String("request_id", record.RequestID),
		zap.String("kind", c.kind),
		zap.Int("status", c.status),
		zap.String("message", logpkg.SanitizeString(c.message, logpkg.MaxErrorMessageLength)),
		zap.String("path", logpkg.SanitizePath(r.URL.Path)),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(c.status)
	if err := json.NewEncoder(w).Encode(record); err != nil {
		n.logger.Error("failed_to_encode_error_response",
			zap.Error(err),
			zap.String("request_id", record.RequestID),
		)
	}
}
