package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/internal/domain/ranking"
	"github.com/okian/standings/internal/domain/types"
	"github.com/okian/standings/pkg/metrics"
)

// board erases the measurement kind of one ranking so the service can hold
// every (kind, range) pair in one map.
type board interface {
	Refresh(ctx context.Context) error
	// Window returns the entries of one build and that build's length.
	Window(offset, limit int) ([]types.Entry, int, error)
	Lookup(id model.SubjectID) (types.Entry, bool)
	Len() int
}

type boardKey struct {
	kind model.Kind
	rng  model.TimeRange
}

type rankedBoard[K model.Attribution] struct {
	key      boardKey
	provider model.AttributionRecordProvider[K]
	ranking  *ranking.Ranking[K]
}

func newBoard[K model.Attribution](rng model.TimeRange, provider model.AttributionRecordProvider[K]) *rankedBoard[K] {
	return &rankedBoard[K]{
		key:      boardKey{kind: model.KindOf[K](), rng: rng},
		provider: provider,
		ranking:  ranking.New[K](),
	}
}

// Refresh rebuilds the ranking from a fresh provider snapshot. On error the
// previous ranking stays in place.
func (b *rankedBoard[K]) Refresh(ctx context.Context) error {
	start := time.Now()
	records, err := b.provider.AttributionRecords(ctx)
	if err != nil {
		metrics.RecordRankingRebuildError(string(b.key.kind), string(b.key.rng))
		return fmt.Errorf("refresh %s/%s: %w", b.key.kind, b.key.rng, err)
	}
	b.ranking.Build(records)
	metrics.RecordRankingRebuild(string(b.key.kind), string(b.key.rng),
		float64(time.Since(start).Microseconds())/1000, len(records))
	return nil
}

func (b *rankedBoard[K]) Window(offset, limit int) ([]types.Entry, int, error) {
	s, total, err := b.ranking.Window(offset, limit)
	if err != nil {
		return nil, total, err
	}
	return types.EntriesFrom(s), total, nil
}

func (b *rankedBoard[K]) Lookup(id model.SubjectID) (types.Entry, bool) {
	rr, ok := b.ranking.Lookup(id)
	if !ok {
		return types.Entry{}, false
	}
	return types.EntryFrom(rr), true
}

func (b *rankedBoard[K]) Len() int {
	return b.ranking.Len()
}
