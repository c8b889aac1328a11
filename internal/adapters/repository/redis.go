package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/pkg/metrics"
)

const defaultKeyPrefix = "standings"

// RedisStore keeps one sorted set of events per kind, scored by event time
// in milliseconds, plus a hash of subject names. Event IDs are claimed with
// SETNX so redelivered events are dropped.
type RedisStore struct {
	client   redis.UniversalClient
	prefix   string
	claimTTL time.Duration
}

// NewRedisStore wraps client. The caller owns the client lifecycle only
// until Close is called on the store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultKeyPrefix, claimTTL: defaultRetention}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenRedis dials addr and verifies the connection.
func OpenRedis(ctx context.Context, addr string, db int, opts ...RedisOption) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(client, opts...), nil
}

func (s *RedisStore) subjectsKey() string {
	return s.prefix + ":subjects"
}

func (s *RedisStore) eventsKey(kind model.Kind) string {
	return s.prefix + ":events:" + string(kind)
}

func (s *RedisStore) appliedKey(eventID string) string {
	return s.prefix + ":applied:" + eventID
}

// member encodes one event as a sorted-set member. The event ID keeps
// members unique when a subject logs the same amount twice.
func member(e model.Event) string {
	return e.EventID + "|" + e.Subject.ID.String() + "|" + strconv.FormatUint(e.Amount, 10)
}

func parseMember(m string) (model.SubjectID, uint64, error) {
	// Event IDs may contain '|', so split from the right.
	last := strings.LastIndexByte(m, '|')
	if last < 0 {
		return uuid.Nil, 0, fmt.Errorf("malformed member %q", m)
	}
	mid := strings.LastIndexByte(m[:last], '|')
	if mid < 0 {
		return uuid.Nil, 0, fmt.Errorf("malformed member %q", m)
	}
	id, err := uuid.Parse(m[mid+1 : last])
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("member subject: %w", err)
	}
	amount, err := strconv.ParseUint(m[last+1:], 10, 64)
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("member amount: %w", err)
	}
	return id, amount, nil
}

// Record implements Store.Record.
func (s *RedisStore) Record(ctx context.Context, e model.Event) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("record", float64(time.Since(start).Microseconds())/1000)
	}()

	if err := validateEvent(e); err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.subjectsKey(), e.Subject.ID.String(), e.Subject.Name).Err(); err != nil {
		return fmt.Errorf("hset subject: %w", err)
	}
	claimed, err := s.client.SetNX(ctx, s.appliedKey(e.EventID), 1, s.claimTTL).Result()
	if err != nil {
		return fmt.Errorf("claim event: %w", err)
	}
	if !claimed {
		return nil
	}
	z := redis.Z{Score: float64(e.TS.UnixMilli()), Member: member(e)}
	if err := s.client.ZAdd(ctx, s.eventsKey(e.Kind), z).Err(); err != nil {
		// Release the claim so a retry can land.
		_ = s.client.Del(ctx, s.appliedKey(e.EventID)).Err()
		return fmt.Errorf("zadd event: %w", err)
	}
	return nil
}

// Tallies implements Store.Tallies.
func (s *RedisStore) Tallies(ctx context.Context, kind model.Kind, since time.Time) ([]model.Tally, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("tallies", float64(time.Since(start).Microseconds())/1000)
	}()

	lower := "-inf"
	if !since.IsZero() {
		lower = strconv.FormatInt(since.UnixMilli(), 10)
	}

	pipe := s.client.Pipeline()
	membersCmd := pipe.ZRangeByScore(ctx, s.eventsKey(kind), &redis.ZRangeBy{Min: lower, Max: "+inf"})
	namesCmd := pipe.HGetAll(ctx, s.subjectsKey())
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load tallies: %w", err)
	}

	names := namesCmd.Val()
	sums := make(map[model.SubjectID]uint64)
	for _, m := range membersCmd.Val() {
		id, amount, err := parseMember(m)
		if err != nil {
			return nil, err
		}
		sums[id] += amount
	}

	out := make([]model.Tally, 0, len(sums))
	for id, count := range sums {
		out = append(out, model.Tally{
			Subject: model.Subject{ID: id, Name: names[id.String()]},
			Kind:    kind,
			Count:   count,
		})
	}
	return out, nil
}

// Count implements Store.Count.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.HLen(ctx, s.subjectsKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("hlen subjects: %w", err)
	}
	return int(n), nil
}

// Close implements Store.Close.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
