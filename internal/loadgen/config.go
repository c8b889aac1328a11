// Package loadgen drives a running standings service with random
// attribution events and checks the rankings it serves.
package loadgen

import "time"

// Config holds configuration for one load run.
type Config struct {
	BaseURL     string        // base URL of the service
	NumEvents   int           // number of events to generate
	NumSubjects int           // number of distinct subjects events are spread over
	Workers     int           // number of concurrent submitters
	Timeout     time.Duration // HTTP request timeout
	Wait        time.Duration // pause between submission and verification
	PageSize    int           // limit used when paging through rankings
	Verbose     bool
}

// Event is the wire shape of POST /events.
type Event struct {
	EventID     string `json:"event_id"`
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	Kind        string `json:"kind"`
	Amount      uint64 `json:"amount"`
	TS          string `json:"ts"`
}

// Entry is one ranked row as served by the API.
type Entry struct {
	Rank        int    `json:"rank"`
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	Value       uint64 `json:"value"`
}

// Page is one window of a ranking as served by the API.
type Page struct {
	Kind    string  `json:"kind"`
	Range   string  `json:"range"`
	Total   int     `json:"total"`
	Offset  int     `json:"offset"`
	Limit   int     `json:"limit"`
	Entries []Entry `json:"entries"`
}

// AckResponse is the body returned by POST /events.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds run statistics.
type Stats struct {
	EventsGenerated  int
	EventsAccepted   int
	EventsDuplicate  int
	EventsRejected   int
	EventsFailed     int
	RankingsVerified int
	EntriesVerified  int
	Duration         time.Duration
}
