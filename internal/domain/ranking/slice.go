package ranking

import (
	"slices"

	"github.com/okian/standings/internal/domain/model"
)

// Slice is an immutable copy of a contiguous window of a Ranking. It does not
// change when the Ranking it was cut from is rebuilt.
type Slice[K model.Attribution] struct {
	records []model.RankedRecord[K]
}

// Len returns the number of records in the window.
func (s Slice[K]) Len() int { return len(s.records) }

// At returns the i-th record of the window.
func (s Slice[K]) At(i int) model.RankedRecord[K] { return s.records[i] }

// Records returns a fresh copy of the window's records.
func (s Slice[K]) Records() []model.RankedRecord[K] {
	if len(s.records) == 0 {
		return []model.RankedRecord[K]{}
	}
	return slices.Clone(s.records)
}
