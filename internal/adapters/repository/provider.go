package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/standings/internal/domain/model"
)

// Provider supplies the record set of one kind over one time range. It is
// the upstream filter the ranking engine consumes.
type Provider[K model.Attribution] struct {
	store Store
	rng   model.TimeRange
	now   func() time.Time
}

// NewProvider binds store and rng for kind K. A nil clock uses time.Now.
func NewProvider[K model.Attribution](store Store, rng model.TimeRange, now func() time.Time) *Provider[K] {
	if now == nil {
		now = time.Now
	}
	return &Provider[K]{store: store, rng: rng, now: now}
}

// AttributionRecords implements model.AttributionRecordProvider.
func (p *Provider[K]) AttributionRecords(ctx context.Context) ([]model.AttributionRecord[K], error) {
	kind := model.KindOf[K]()
	tallies, err := p.store.Tallies(ctx, kind, Window(p.rng, p.now()))
	if err != nil {
		return nil, fmt.Errorf("load %s tallies for %s: %w", kind, p.rng, err)
	}
	out := make([]model.AttributionRecord[K], len(tallies))
	for i, t := range tallies {
		out[i] = model.RecordFromTally[K](t)
	}
	return out, nil
}
