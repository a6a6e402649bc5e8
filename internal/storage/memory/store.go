// Package memory provides the in-memory keyspace for respkv.
package memory

import (
	"bytes"
	"time"

	"github.com/yndnr/respkv/pkg/cmap"
)

// Entry is a stored value together with its optional absolute expiry.
type Entry struct {
	Value []byte
	// ExpiresAt is zero for keys that never expire. It is fixed until the
	// key is overwritten.
	ExpiresAt time.Time
}

// HasExpiry reports whether the entry carries an expiry.
func (e Entry) HasExpiry() bool {
	return !e.ExpiresAt.IsZero()
}

// IsExpired reports whether the entry is expired at now.
// The boundary is inclusive: an entry expiring at t is gone at t.
func (e Entry) IsExpired(now time.Time) bool {
	return e.HasExpiry() && !now.Before(e.ExpiresAt)
}

// Store is the process-wide keyspace shared by every connection.
//
// Each key lives in exactly one cmap shard and an entry is replaced as a
// whole, so a concurrent Get observes either the old or the new value and
// expiry, never a mix.
//
// Expired entries are masked on read but not removed.
type Store struct {
	entries    *cmap.Map[Entry]
	now        func() time.Time
	shardCount int
}

// Option configures the Store.
type Option func(*Store)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithShardCount sets the number of map shards (power of two).
func WithShardCount(n int) Option {
	return func(s *Store) {
		s.shardCount = n
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:        time.Now,
		shardCount: cmap.DefaultShardCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.entries = cmap.NewWithShards[Entry](s.shardCount)
	return s
}

// Put stores value under key with no expiry, replacing any previous value
// and expiry.
func (s *Store) Put(key string, value []byte) {
	s.entries.Set(key, Entry{Value: bytes.Clone(value)})
}

// PutWithTTL stores value under key, expiring ttl from now. A ttl <= 0
// produces an entry that is already expired.
func (s *Store) PutWithTTL(key string, value []byte, ttl time.Duration) {
	s.entries.Set(key, Entry{
		Value:     bytes.Clone(value),
		ExpiresAt: s.now().Add(ttl),
	})
}

// Get returns the live value for key. Absent and expired keys both report
// false. The returned slice must not be modified.
func (s *Store) Get(key string) ([]byte, bool) {
	e, ok := s.entries.Get(key)
	if !ok || e.IsExpired(s.now()) {
		return nil, false
	}
	return e.Value, true
}

// Len returns the number of stored entries, including expired entries that
// have not been overwritten yet.
func (s *Store) Len() int {
	return s.entries.Count()
}
