package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

const shardCount = 32

// MemoryStore is an in-process sharded window store. Keys are spread over
// independently locked shards so flows touching different keys do not
// block each other.
type MemoryStore struct {
	limit  int
	window time.Duration
	shards [shardCount]memoryShard

	// lastSweep gates the lazy cleanup to at most once per window.
	lastSweep atomic.Int64

	now func() time.Time
}

type memoryShard struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the store's clock. Used by tests and the configure
// CLI simulator.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates a store with the given window ceiling and
// duration. Non-positive values fall back to fixed defaults.
func NewMemoryStore(limit int, window time.Duration, opts ...MemoryOption) *MemoryStore {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	s := &MemoryStore{limit: limit, window: window, now: time.Now}
	for i := range s.shards {
		s.shards[i].entries = make(map[string]*windowEntry)
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastSweep.Store(s.now().UnixNano())
	return s
}

// Take implements Store. The check-and-increment runs under the key's
// shard lock, so no concurrent flow for the same key can overshoot.
func (s *MemoryStore) Take(_ context.Context, key string) (Result, error) {
	now := s.now()
	sh := &s.shards[shardIndex(key)]

	sh.mu.Lock()
	e, ok := sh.entries[key]
	if !ok || !now.Before(e.resetAt) {
		// First request for this key, or the previous window has lapsed:
		// open a fresh window charged with this request.
		e = &windowEntry{count: 1, resetAt: now.Add(s.window)}
		sh.entries[key] = e
	} else {
		e.count++
	}
	res := Result{
		Allowed:    e.count <= s.limit,
		Limit:      s.limit,
		Remaining:  max(0, s.limit-e.count),
		ResetAfter: e.resetAt.Sub(now),
	}
	sh.mu.Unlock()

	s.maybeSweep(now)
	return res, nil
}

// Len returns the number of tracked keys across all shards.
func (s *MemoryStore) Len() int {
	n := 0
	for i := range s.shards {
		s.shards[i].mu.Lock()
		n += len(s.shards[i].entries)
		s.shards[i].mu.Unlock()
	}
	return n
}

// maybeSweep removes entries whose window has lapsed. Expired entries are
// not deleted on the hot path, so without this the store would grow with
// every distinct key ever seen; the sweep bounds memory to roughly one
// window's worth of active keys. An atomic gate keeps it to at most one
// run per window duration.
func (s *MemoryStore) maybeSweep(now time.Time) {
	last := s.lastSweep.Load()
	if now.UnixNano()-last < int64(s.window) {
		return
	}
	if !s.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		// Another flow won the gate.
		return
	}
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for key, e := range sh.entries {
			if !now.Before(e.resetAt) {
				delete(sh.entries, key)
			}
		}
		sh.mu.Unlock()
	}
}

func shardIndex(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32() % shardCount
}
