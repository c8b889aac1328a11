package loadgen

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/standings/internal/domain/model"
)

const maxAmount = 20

type subject struct {
	id   string
	name string
}

// generateEvents spreads n events over numSubjects random subjects and all
// kinds. Amounts are small so that ties are common.
func generateEvents(n, numSubjects int, now time.Time) []Event {
	if numSubjects < 1 {
		numSubjects = 1
	}
	subjects := make([]subject, numSubjects)
	for i := range subjects {
		subjects[i] = subject{id: uuid.NewString(), name: "subject-" + strconv.Itoa(i)}
	}
	kinds := model.Kinds()
	ts := now.UTC().Format(time.RFC3339)

	events := make([]Event, n)
	for i := range events {
		s := subjects[rand.IntN(len(subjects))]
		events[i] = Event{
			EventID:     uuid.NewString(),
			SubjectID:   s.id,
			SubjectName: s.name,
			Kind:        string(kinds[rand.IntN(len(kinds))]),
			Amount:      uint64(rand.IntN(maxAmount + 1)),
			TS:          ts,
		}
	}
	return events
}

// expectedTotals sums accepted events per kind and subject.
func expectedTotals(events []Event, accepted []bool) map[string]map[string]uint64 {
	out := make(map[string]map[string]uint64)
	for i, e := range events {
		if !accepted[i] {
			continue
		}
		bySubject, ok := out[e.Kind]
		if !ok {
			bySubject = make(map[string]uint64)
			out[e.Kind] = bySubject
		}
		bySubject[e.SubjectID] += e.Amount
	}
	return out
}
