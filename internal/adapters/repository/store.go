// Package repository stores attribution events and aggregates them into
// per-subject tallies for a measurement kind and time window.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/standings/internal/domain/model"
)

// Store persists attribution events and serves windowed tallies.
type Store interface {
	// Record stores one event. Recording the same EventID again has no
	// further effect while the store still remembers it: for the memory and
	// redis stores that is the retention period after first ingestion, for
	// postgres it is forever. The subject's display name is refreshed.
	Record(ctx context.Context, e model.Event) error

	// Tallies sums the amounts of kind's events with TS >= since, one
	// tally per subject. A zero since means all time.
	Tallies(ctx context.Context, kind model.Kind, since time.Time) ([]model.Tally, error)

	// Count returns the number of distinct subjects known to the store.
	Count(ctx context.Context) (int, error)

	Close() error
}

// Window returns the earliest event time included in r as of now. The zero
// time means no lower bound.
func Window(r model.TimeRange, now time.Time) time.Time {
	switch r {
	case model.TimeRangeLastOneYear:
		return now.AddDate(-1, 0, 0)
	case model.TimeRangeLastOneMonth:
		return now.AddDate(0, -1, 0)
	case model.TimeRangeLastOneWeek:
		return now.AddDate(0, 0, -7)
	case model.TimeRangeLastOneDay:
		return now.Add(-24 * time.Hour)
	default:
		return time.Time{}
	}
}

func validateEvent(e model.Event) error {
	switch {
	case e.EventID == "":
		return fmt.Errorf("%w: missing event id", ErrInvalidEvent)
	case e.Kind == "":
		return fmt.Errorf("%w: missing kind", ErrInvalidEvent)
	case e.TS.IsZero():
		return fmt.Errorf("%w: missing timestamp", ErrInvalidEvent)
	case e.Amount > model.MaxAmount:
		return fmt.Errorf("%w: amount %d exceeds %d", ErrInvalidEvent, e.Amount, model.MaxAmount)
	}
	if _, err := model.ParseKind(string(e.Kind)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	return nil
}
