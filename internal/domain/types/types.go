// Package types contains common types used across the application
package types

import (
	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/internal/domain/ranking"
)

// Entry is the display shape of one ranked record.
type Entry struct {
	Rank        int    `json:"rank"`
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	Value       uint64 `json:"value"`
}

// Page is one window of a ranking plus the total needed to page further.
type Page struct {
	Kind    string  `json:"kind"`
	Range   string  `json:"range"`
	Total   int     `json:"total"`
	Offset  int     `json:"offset"`
	Limit   int     `json:"limit"`
	Entries []Entry `json:"entries"`
}

// EntryFrom flattens a typed ranked record.
func EntryFrom[K model.Attribution](rr model.RankedRecord[K]) Entry {
	return Entry{
		Rank:        rr.Rank,
		SubjectID:   rr.Record.Subject.ID.String(),
		SubjectName: rr.Record.Subject.Name,
		Value:       uint64(rr.Record.Value),
	}
}

// EntriesFrom flattens a ranking window without copying it again. It never
// returns nil.
func EntriesFrom[K model.Attribution](s ranking.Slice[K]) []Entry {
	out := make([]Entry, s.Len())
	for i := range out {
		out[i] = EntryFrom(s.At(i))
	}
	return out
}
