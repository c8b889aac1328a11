package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/pkg/metrics"
)

// defaultRetention covers the widest bounded window (one year) with margin.
const defaultRetention = 366 * 24 * time.Hour

type entry struct {
	at     time.Time
	amount uint64
}

type subjectTally struct {
	total   uint64
	entries []entry
}

// MemoryStore is an in-process Store. Windowed tallies scan the retained
// entries; all-time tallies read a running total.
type MemoryStore struct {
	mu        sync.RWMutex
	names     map[model.SubjectID]string
	byKind    map[model.Kind]map[model.SubjectID]*subjectTally
	applied   map[string]time.Time // event id -> ingestion time
	retention time.Duration
	now       func() time.Time
	closed    bool
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		names:     make(map[model.SubjectID]string),
		byKind:    make(map[model.Kind]map[model.SubjectID]*subjectTally),
		applied:   make(map[string]time.Time),
		retention: defaultRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record implements Store.Record.
func (s *MemoryStore) Record(_ context.Context, e model.Event) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("record", float64(time.Since(start).Microseconds())/1000)
	}()

	if err := validateEvent(e); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.names[e.Subject.ID] = e.Subject.Name
	if _, dup := s.applied[e.EventID]; dup {
		return nil
	}
	s.applied[e.EventID] = s.now()

	subjects, ok := s.byKind[e.Kind]
	if !ok {
		subjects = make(map[model.SubjectID]*subjectTally)
		s.byKind[e.Kind] = subjects
	}
	t, ok := subjects[e.Subject.ID]
	if !ok {
		t = &subjectTally{}
		subjects[e.Subject.ID] = t
	}
	t.total += e.Amount
	t.entries = append(t.entries, entry{at: e.TS, amount: e.Amount})
	return nil
}

// Tallies implements Store.Tallies.
func (s *MemoryStore) Tallies(_ context.Context, kind model.Kind, since time.Time) ([]model.Tally, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("tallies", float64(time.Since(start).Microseconds())/1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	subjects := s.byKind[kind]
	out := make([]model.Tally, 0, len(subjects))
	for id, t := range subjects {
		count := t.total
		if !since.IsZero() {
			var inWindow bool
			count, inWindow = sumSince(t.entries, since)
			if !inWindow {
				continue
			}
		}
		out = append(out, model.Tally{
			Subject: model.Subject{ID: id, Name: s.names[id]},
			Kind:    kind,
			Count:   count,
		})
	}
	return out, nil
}

// sumSince sums entries at or after since. inWindow is false when no entry
// qualifies, so subjects that only recorded zero amounts still appear.
func sumSince(entries []entry, since time.Time) (sum uint64, inWindow bool) {
	for _, en := range entries {
		if !en.at.Before(since) {
			sum += en.amount
			inWindow = true
		}
	}
	return sum, inWindow
}

// Prune drops entries whose event time is older than now minus the retention
// horizon. All-time totals are kept. Applied event IDs expire by ingestion
// time instead, so a redelivered event with an old timestamp is still
// recognised for a full retention period after it first arrived.
func (s *MemoryStore) Prune(now time.Time) int {
	cutoff := now.Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for _, subjects := range s.byKind {
		for _, t := range subjects {
			kept := t.entries[:0]
			for _, en := range t.entries {
				if en.at.Before(cutoff) {
					dropped++
					continue
				}
				kept = append(kept, en)
			}
			t.entries = kept
		}
	}
	for id, at := range s.applied {
		if at.Before(cutoff) {
			delete(s.applied, id)
		}
	}
	return dropped
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.names), nil
}

// Close implements Store.Close.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
