package loadgen

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/okian/standings/pkg/logger"
)

// submitEvents posts events with cfg.Workers concurrent submitters. The
// returned slice marks which events the service accepted.
func submitEvents(ctx context.Context, cfg *Config, client *httpClient, events []Event, stats *Stats) []bool {
	log := logger.Get().Named("loadgen")
	log.Info(ctx, "submitting events", logger.Int("events", len(events)), logger.Int("workers", cfg.Workers))

	accepted := make([]bool, len(events))
	var (
		ok, dup, rejected, failed atomic.Int64
		wg                        sync.WaitGroup
	)

	indexes := make(chan int, cfg.Workers*2)
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				status, err := client.post(ctx, "/events", events[i])
				switch {
				case err != nil:
					failed.Add(1)
					if cfg.Verbose {
						log.Warn(ctx, "submit failed", logger.String("eventID", events[i].EventID), logger.Error(err))
					}
				case status == http.StatusAccepted:
					accepted[i] = true
					ok.Add(1)
				case status == http.StatusOK:
					dup.Add(1)
				case status == http.StatusTooManyRequests:
					rejected.Add(1)
				default:
					failed.Add(1)
					if cfg.Verbose {
						log.Warn(ctx, "unexpected status", logger.String("eventID", events[i].EventID), logger.Int("status", status))
					}
				}
			}
		}()
	}

	go func() {
		defer close(indexes)
		for i := range events {
			select {
			case <-ctx.Done():
				return
			case indexes <- i:
			}
		}
	}()
	wg.Wait()

	stats.EventsAccepted = int(ok.Load())
	stats.EventsDuplicate = int(dup.Load())
	stats.EventsRejected = int(rejected.Load())
	stats.EventsFailed = int(failed.Load())
	log.Info(ctx, "event submission completed",
		logger.Int("accepted", stats.EventsAccepted),
		logger.Int("duplicate", stats.EventsDuplicate),
		logger.Int("rejected", stats.EventsRejected),
		logger.Int("failed", stats.EventsFailed),
	)
	return accepted
}
