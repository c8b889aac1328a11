// Package ranking builds tie-aware rankings over one measurement kind and
// serves bounded windows of them.
//
// Ordering: value DESC, then subject ID ASC (deterministic). Ranks follow
// standard competition ranking: equal values share a rank and the next
// distinct value is ranked by its own 1-based position, so 10,10,8,8,5 ranks
// as 1,1,3,3,5.
package ranking

import (
	"bytes"
	"cmp"
	"slices"
	"sync"

	"github.com/okian/standings/internal/domain/model"
)

// Ranking owns the ranked sequence for one kind. Build replaces the sequence
// wholesale; readers observe either the old or the new sequence, never a mix.
type Ranking[K model.Attribution] struct {
	mu     sync.RWMutex
	ranked []model.RankedRecord[K]
}

// New returns an empty ranking.
func New[K model.Attribution]() *Ranking[K] {
	return &Ranking[K]{}
}

// Build sorts records and assigns competition ranks, replacing any prior
// state. Subjects in records must be unique; duplicates are not merged.
func (r *Ranking[K]) Build(records []model.AttributionRecord[K]) {
	ranked := rank(records)

	r.mu.Lock()
	r.ranked = ranked
	r.mu.Unlock()
}

// Len returns the length of the ranked sequence.
func (r *Ranking[K]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ranked)
}

// Paginate returns a copy of [offset, offset+limit). An out-of-range window
// is a caller bug and panics with a *WindowError; query Len first.
func (r *Ranking[K]) Paginate(offset, limit int) Slice[K] {
	s, err := r.Page(offset, limit)
	if err != nil {
		panic(err)
	}
	return s
}

// Page is Paginate for callers that validate untrusted input: the window
// check and the copy happen under one read lock, and a bad window is
// returned as a *WindowError instead of panicking. It never clamps.
func (r *Ranking[K]) Page(offset, limit int) (Slice[K], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.ranked)
	if offset < 0 || limit < 0 || offset > n || limit > n-offset {
		return Slice[K]{}, &WindowError{Offset: offset, Limit: limit, Len: n}
	}
	return Slice[K]{records: slices.Clone(r.ranked[offset : offset+limit])}, nil
}

// Window is Page for presentation callers: a limit running past the end is
// shortened to the records that remain. The length it checked against is
// returned with the copy, all under one read lock, so the pair always
// describes a single build. A negative window or an offset past the end is
// still a *WindowError.
func (r *Ranking[K]) Window(offset, limit int) (Slice[K], int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.ranked)
	if offset < 0 || limit < 0 || offset > n {
		return Slice[K]{}, n, &WindowError{Offset: offset, Limit: limit, Len: n}
	}
	limit = min(limit, n-offset)
	return Slice[K]{records: slices.Clone(r.ranked[offset : offset+limit])}, n, nil
}

// Lookup returns the ranked record of a subject, if present.
func (r *Ranking[K]) Lookup(id model.SubjectID) (model.RankedRecord[K], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rr := range r.ranked {
		if rr.Record.Subject.ID == id {
			return rr, true
		}
	}
	return model.RankedRecord[K]{}, false
}

// rank returns a new sorted, ranked sequence; records is left untouched.
func rank[K model.Attribution](records []model.AttributionRecord[K]) []model.RankedRecord[K] {
	sorted := slices.Clone(records)
	slices.SortFunc(sorted, compareRecords[K])

	ranked := make([]model.RankedRecord[K], len(sorted))
	for i, rec := range sorted {
		rk := i + 1
		if i > 0 && rec.Value == sorted[i-1].Value {
			rk = ranked[i-1].Rank
		}
		ranked[i] = model.RankedRecord[K]{Rank: rk, Record: rec}
	}
	return ranked
}

// compareRecords orders higher values first, ties by subject ID ascending.
func compareRecords[K model.Attribution](a, b model.AttributionRecord[K]) int {
	if c := cmp.Compare(b.Value, a.Value); c != 0 {
		return c
	}
	return bytes.Compare(a.Subject.ID[:], b.Subject.ID[:])
}
