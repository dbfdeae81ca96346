package request

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// HeaderRequestID is the correlation header, read from requests and echoed
// on responses.
const HeaderRequestID = "X-Request-Id"

// UnknownClientKey is the sentinel rate-limit key used when no client
// address can be derived from the request.
const UnknownClientKey = "unknown"

type contextKey string

const requestIDContextKey contextKey = "request_id"

// WithID returns a context carrying the request correlation id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// ID returns the correlation id from the context, or "" if none was set.
func ID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// ClientIP extracts the client IP from the request, respecting
// X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			if ip := strings.TrimSpace(parts[0]); ip != "" {
				return ip
			}
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	// RemoteAddr is host:port for real connections; strip the port so one
	// client maps to one key regardless of source port.
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// ClientKey derives the identity a rate window is tracked against, falling
// back to UnknownClientKey when no address is available.
func ClientKey(r *http.Request) string {
	if ip := ClientIP(r); ip != "" {
		return ip
	}
	return UnknownClientKey
}
