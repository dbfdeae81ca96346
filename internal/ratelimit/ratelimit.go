// Package ratelimit implements the per-client admission counter store.
//
// A Store tracks one fixed window per client key. Admission is charged at
// request start, so abandoning requests cannot dodge the counter. The
// decision logic lives behind the Store interface so the in-memory store
// can be swapped for a shared distributed one without touching callers.
package ratelimit

import (
	"context"
	"time"
)

const (
	// DefaultLimit is used when a store is constructed with a non-positive
	// limit. Misconfiguration must never fail requests.
	DefaultLimit = 100
	// DefaultWindow is used when a store is constructed with a
	// non-positive window duration.
	DefaultWindow = time.Minute
)

// Result is the outcome of charging one request against a key's window.
type Result struct {
	// Allowed reports whether the request fits the window budget.
	Allowed bool
	// Limit is the configured ceiling for the window.
	Limit int
	// Remaining is the budget left in the current window, never negative.
	Remaining int
	// ResetAfter is how long until the current window resets.
	ResetAfter time.Duration
}

// Store charges requests against per-key windows.
type Store interface {
	// Take atomically increments the counter for key's current window and
	// returns the admission decision. Concurrent calls for the same key
	// must never lose an increment.
	Take(ctx context.Context, key string) (Result, error)
}
