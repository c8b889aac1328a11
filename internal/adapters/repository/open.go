package repository

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Params selects and configures a Store backend.
type Params struct {
	Backend     string
	PostgresDSN string
	RedisAddr   string
	RedisDB     int
	KeyPrefix   string
	Retention   time.Duration
}

// Open builds the Store named by p.Backend.
func Open(ctx context.Context, p Params) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(p.Backend)) {
	case "", BackendMemory:
		return NewMemoryStore(WithRetention(p.Retention)), nil
	case BackendPostgres:
		return OpenPostgres(ctx, p.PostgresDSN)
	case BackendRedis:
		return OpenRedis(ctx, p.RedisAddr, p.RedisDB, WithKeyPrefix(p.KeyPrefix), WithClaimTTL(p.Retention))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, p.Backend)
	}
}
