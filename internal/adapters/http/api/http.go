// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/standings/internal/domain/dedupe"
	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/internal/domain/types"
)

const defaultMaxPageLimit = 100

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes an event for async recording. Returns false on backpressure.
	Enqueue(ctx context.Context, e model.Event) bool

	// Page returns one window of the ranking for kind over rng.
	Page(ctx context.Context, kind model.Kind, rng model.TimeRange, offset, limit int) (types.Page, error)

	// Rank returns one subject's entry in the ranking for kind over rng.
	Rank(ctx context.Context, kind model.Kind, rng model.TimeRange, id model.SubjectID) (types.Entry, error)
}

// Entry mirrors the read shape returned by ranking queries.
type Entry = types.Entry

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxPageLimit caps the limit query parameter of ranking pages.
func WithMaxPageLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxPageLimit = n
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	maxPageLimit    int
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	eventsHandler   *EventsHandler
	rankingsHandler *RankingsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{maxPageLimit: defaultMaxPageLimit}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.eventsHandler = NewEventsHandler(deps)
	s.rankingsHandler = NewRankingsHandler(deps, s.maxPageLimit)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("GET /rankings/{kind}", MetricsMiddleware(s.rankingsHandler.HandleGetPage, "rankings"))
	mux.HandleFunc("GET /rankings/{kind}/{subject_id}", MetricsMiddleware(s.rankingsHandler.HandleGetRank, "rank"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
