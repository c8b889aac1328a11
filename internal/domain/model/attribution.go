package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned when a measurement kind name is not recognized.
var ErrUnknownKind = errors.New("unknown measurement kind")

// Kind names a measurement kind.
type Kind string

// Known measurement kinds.
const (
	KindBreakCount Kind = "break_count"
	KindBuildCount Kind = "build_count"
	KindPlayTicks  Kind = "play_ticks"
	KindVoteCount  Kind = "vote_count"
)

// Kinds returns every known kind in a fixed order.
func Kinds() []Kind {
	return []Kind{KindBreakCount, KindBuildCount, KindPlayTicks, KindVoteCount}
}

// ParseKind maps a kind name (case-insensitive) to its Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) String() string { return string(k) }

// Attribution is satisfied by every measurement kind. Values are ordered by
// the wrapped count; each kind is its own type so rankings cannot mix them.
type Attribution interface {
	~uint64
	Kind() Kind
}

// BreakCount counts blocks broken.
type BreakCount uint64

// BuildCount counts blocks placed.
type BuildCount uint64

// PlayTicks counts game ticks spent online.
type PlayTicks uint64

// VoteCount counts votes cast.
type VoteCount uint64

func (BreakCount) Kind() Kind { return KindBreakCount }
func (BuildCount) Kind() Kind { return KindBuildCount }
func (PlayTicks) Kind() Kind  { return KindPlayTicks }
func (VoteCount) Kind() Kind  { return KindVoteCount }

// KindOf returns the kind of K without needing a value.
func KindOf[K Attribution]() Kind {
	var zero K
	return zero.Kind()
}

// AttributionRecord pairs a subject with its measured value for one kind.
type AttributionRecord[K Attribution] struct {
	Subject Subject
	Value   K
}

// RankedRecord is an AttributionRecord with its 1-based competition rank.
type RankedRecord[K Attribution] struct {
	Rank   int
	Record AttributionRecord[K]
}

// AttributionRecordProvider supplies the full, deduplicated record set for one
// kind and aggregation window.
type AttributionRecordProvider[K Attribution] interface {
	AttributionRecords(ctx context.Context) ([]AttributionRecord[K], error)
}
