package loadgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/pkg/logger"
)

const (
	defaultPageSize = 100
	defaultWorkers  = 4
)

// Run executes one full load run: health check, generation, concurrent
// submission, a pause for the service to refresh, then verification of
// every kind's all-time ranking.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}
	if cfg.PageSize < 1 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.Workers < 1 {
		cfg.Workers = defaultWorkers
	}
	log := logger.Get().Named("loadgen")
	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("events", cfg.NumEvents),
		logger.Int("subjects", cfg.NumSubjects),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
	)

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := client.get(ctx, "/healthz", nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	events := generateEvents(cfg.NumEvents, cfg.NumSubjects, time.Now())
	stats.EventsGenerated = len(events)

	accepted := submitEvents(ctx, cfg, client, events, stats)
	want := expectedTotals(events, accepted)

	log.Info(ctx, "waiting for rankings to refresh", logger.Duration("wait", cfg.Wait))
	select {
	case <-ctx.Done():
		return stats, ctx.Err()
	case <-time.After(cfg.Wait):
	}

	var errs []error
	for _, kind := range model.Kinds() {
		entries, err := fetchRanking(ctx, client, string(kind), cfg.PageSize)
		if err != nil {
			errs = append(errs, fmt.Errorf("fetch %s: %w", kind, err))
			continue
		}
		if err := VerifyRanking(entries); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
			continue
		}
		if err := VerifyTotals(entries, want[string(kind)]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
			continue
		}
		stats.RankingsVerified++
		stats.EntriesVerified += len(entries)
		if cfg.Verbose {
			log.Info(ctx, "ranking verified", logger.String("kind", string(kind)), logger.Int("entries", len(entries)))
		}
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "final statistics",
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("eventsAccepted", stats.EventsAccepted),
		logger.Int("eventsRejected", stats.EventsRejected),
		logger.Int("eventsFailed", stats.EventsFailed),
		logger.Int("rankingsVerified", stats.RankingsVerified),
		logger.Int("entriesVerified", stats.EntriesVerified),
		logger.Duration("duration", stats.Duration),
	)
	return stats, errors.Join(errs...)
}
