package model

import (
	"math"
	"time"
)

// MaxAmount is the largest event amount every store can hold. Postgres keeps
// amounts as BIGINT.
const MaxAmount uint64 = math.MaxInt64

// Event is one observed contribution of a subject to a measurement kind.
// EventID makes submission idempotent.
type Event struct {
	EventID string
	Subject Subject
	Kind    Kind
	Amount  uint64
	TS      time.Time
}

// Tally is a kind-erased aggregate for one subject, as returned by stores.
type Tally struct {
	Subject Subject
	Kind    Kind
	Count   uint64
}

// RecordFromTally converts a tally into a typed attribution record.
func RecordFromTally[K Attribution](t Tally) AttributionRecord[K] {
	return AttributionRecord[K]{Subject: t.Subject, Value: K(t.Count)}
}
