// Package service wires the attribution store, the ingest pipeline and one
// ranking per (kind, time range) into the operations the HTTP API needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	eventqueue "github.com/okian/standings/internal/adapters/mq/queue"
	workerpool "github.com/okian/standings/internal/adapters/mq/worker"
	"github.com/okian/standings/internal/adapters/repository"
	"github.com/okian/standings/internal/domain/dedupe"
	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/internal/domain/types"
	"github.com/okian/standings/pkg/logger"
	"github.com/okian/standings/pkg/metrics"
)

const (
	defaultQueueSize       = 100000
	defaultDedupeSize      = 500000
	defaultRefreshInterval = 5 * time.Second
	stopTimeout            = 10 * time.Second
)

// pruner is implemented by stores that hold retained entries in process.
type pruner interface {
	Prune(now time.Time) int
}

// Service implements the API dependencies for the rankings system.
type Service struct {
	mu sync.RWMutex

	store      repository.Store
	deduper    dedupe.Deduper
	eventQueue *eventqueue.InMemoryQueue
	workerPool *workerpool.Pool
	boards     map[boardKey]board

	workerCount     int
	queueSize       int
	dedupeSize      int
	refreshInterval time.Duration
	now             func() time.Time

	started     bool
	refreshMu   sync.Mutex
	lastRefresh atomic.Int64 // unix seconds
	stopCh      chan struct{}
	wg          sync.WaitGroup

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU() * 2,
		queueSize:       defaultQueueSize,
		dedupeSize:      defaultDedupeSize,
		refreshInterval: defaultRefreshInterval,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the pipeline, performs an initial refresh and launches the
// periodic refresher. Calling Start twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting rankings service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using memory store")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.boards = newBoards(s.store, s.now)

	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.store,
		workerpool.WithFailureHandler(s.onRecordFailure))
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.refreshMu.Lock()
	err := s.refreshBoards(ctx, s.boards)
	s.refreshMu.Unlock()
	if err != nil {
		s.logger.Warn(ctx, "initial refresh incomplete", logger.Error(err))
	}

	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.refreshLoop()

	s.started = true
	s.logger.Info(ctx, "rankings service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Duration("refreshInterval", s.refreshInterval),
	)
	return nil
}

// Stop drains queued events into the store, stops the refresher and
// closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stopCh)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	s.logger.Info(ctx, "stopping rankings service...")

	s.wg.Wait()
	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing store", logger.Error(err))
	}
	s.logger.Info(ctx, "rankings service stopped")
}

func (s *Service) refreshLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			ctx := context.Background()
			if p, ok := s.store.(pruner); ok {
				if n := p.Prune(s.now()); n > 0 {
					s.logger.Debug(ctx, "pruned expired entries", logger.Int("count", n))
				}
			}
			if err := s.Refresh(ctx); err != nil {
				s.logger.Error(ctx, "refresh failed", logger.Error(err))
			}
		}
	}
}

// Refresh rebuilds every ranking from the store. A board whose snapshot
// fails keeps its previous ranking; the failures are joined.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.RLock()
	boards := s.boards
	s.mu.RUnlock()
	if boards == nil {
		return ErrNotStarted
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.refreshBoards(ctx, boards)
}

func (s *Service) refreshBoards(ctx context.Context, boards map[boardKey]board) error {
	var errs []error
	for _, b := range boards {
		if err := b.Refresh(ctx); err != nil {
			metrics.RecordErrorByComponent("service", "refresh")
			errs = append(errs, err)
		}
	}
	now := s.now().Unix()
	s.lastRefresh.Store(now)
	metrics.UpdateLastRefreshUnix(float64(now))
	if n, err := s.store.Count(ctx); err == nil {
		metrics.UpdateStoreSubjects(n)
	}
	return errors.Join(errs...)
}

func (s *Service) onRecordFailure(ctx context.Context, e workerpool.Event, err error) {
	// Allow a client retry to get through the deduper.
	s.deduper.Unrecord(ctx, e.EventID)
	s.logger.Warn(ctx, "event not recorded",
		logger.String("eventID", e.EventID),
		logger.String("kind", string(e.Kind)),
		logger.Error(err),
	)
}

// SeenAndRecord reports whether id was seen before and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordEventDuplicate()
	}
	return seen
}

// Unrecord removes an event ID from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits an event for asynchronous recording. It returns false on
// backpressure or when the service is not running.
func (s *Service) Enqueue(ctx context.Context, e model.Event) bool {
	s.mu.RLock()
	q := s.eventQueue
	running := s.started
	s.mu.RUnlock()
	if !running {
		metrics.RecordEventRejected("not_started")
		return false
	}

	s.logger.Debug(ctx, "enqueueing event",
		logger.String("eventID", e.EventID),
		logger.String("subjectID", e.Subject.ID.String()),
		logger.String("kind", string(e.Kind)),
		logger.Uint64("amount", e.Amount),
	)
	if !q.Enqueue(ctx, e) {
		metrics.RecordEventRejected("backpressure")
		return false
	}
	metrics.RecordEventAccepted()
	return true
}

func (s *Service) board(kind model.Kind, rng model.TimeRange) (board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.boards == nil {
		return nil, ErrNotStarted
	}
	b, ok := s.boards[boardKey{kind: kind, rng: rng}]
	if !ok {
		return nil, fmt.Errorf("ranking %s/%s: %w", kind, rng, ErrNotFound)
	}
	return b, nil
}

// Page returns the window [offset, offset+limit) of a ranking. A limit that
// runs past the end is shortened to the remaining records; any other bad
// window fails with ranking.ErrWindowOutOfRange.
func (s *Service) Page(_ context.Context, kind model.Kind, rng model.TimeRange, offset, limit int) (types.Page, error) {
	b, err := s.board(kind, rng)
	if err != nil {
		return types.Page{}, err
	}
	entries, total, err := b.Window(offset, limit)
	if err != nil {
		return types.Page{}, fmt.Errorf("page %s/%s: %w", kind, rng, err)
	}
	return types.Page{
		Kind:    string(kind),
		Range:   string(rng),
		Total:   total,
		Offset:  offset,
		Limit:   len(entries),
		Entries: entries,
	}, nil
}

// Rank returns the ranked entry for one subject.
func (s *Service) Rank(_ context.Context, kind model.Kind, rng model.TimeRange, id model.SubjectID) (types.Entry, error) {
	b, err := s.board(kind, rng)
	if err != nil {
		return types.Entry{}, err
	}
	entry, ok := b.Lookup(id)
	if !ok {
		return types.Entry{}, fmt.Errorf("subject %s in %s/%s: %w", id, kind, rng, ErrNotFound)
	}
	return entry, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"refreshInterval": s.refreshInterval.String(),
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	queueLen := s.eventQueue.Len(ctx)
	stats["queueLength"] = queueLen
	stats["dedupeEntries"] = s.deduper.Size()
	stats["lastRefresh"] = time.Unix(s.lastRefresh.Load(), 0).UTC().Format(time.RFC3339)
	if n, err := s.store.Count(ctx); err == nil {
		stats["totalSubjects"] = n
		metrics.UpdateStoreSubjects(n)
	}

	sizes := make(map[string]int, len(s.boards))
	for key, b := range s.boards {
		sizes[string(key.kind)+"/"+string(key.rng)] = b.Len()
	}
	stats["rankings"] = sizes

	metrics.UpdateQueueSize(queueLen)
	return stats
}

func newBoards(store repository.Store, now func() time.Time) map[boardKey]board {
	boards := make(map[boardKey]board)
	for _, rng := range model.TimeRanges() {
		addBoard[model.BreakCount](boards, store, rng, now)
		addBoard[model.BuildCount](boards, store, rng, now)
		addBoard[model.PlayTicks](boards, store, rng, now)
		addBoard[model.VoteCount](boards, store, rng, now)
	}
	return boards
}

func addBoard[K model.Attribution](boards map[boardKey]board, store repository.Store, rng model.TimeRange, now func() time.Time) {
	b := newBoard[K](rng, repository.NewProvider[K](store, rng, now))
	boards[b.key] = b
}
