package repository

import "time"

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithRetention bounds how long timestamped entries are kept for windowed
// tallies. All-time totals are never pruned.
func WithRetention(d time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithClock sets the clock that stamps ingestion times for deduplication.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// RedisOption applies a configuration option to the RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix namespaces every key the RedisStore touches.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithClaimTTL sets how long a recorded event ID is remembered. It should
// cover the retention period.
func WithClaimTTL(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		if d > 0 {
			s.claimTTL = d
		}
	}
}
