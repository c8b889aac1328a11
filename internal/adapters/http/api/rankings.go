package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/internal/domain/ranking"
	"github.com/okian/standings/internal/domain/types"
)

const defaultPageLimit = 10

// RankingsDependencies defines the read operations over rankings.
type RankingsDependencies interface {
	Page(ctx context.Context, kind model.Kind, rng model.TimeRange, offset, limit int) (types.Page, error)
	Rank(ctx context.Context, kind model.Kind, rng model.TimeRange, id model.SubjectID) (types.Entry, error)
}

// RankingsHandler serves ranking pages and single-subject lookups.
type RankingsHandler struct {
	deps     RankingsDependencies
	maxLimit int
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingsDependencies, maxLimit int) *RankingsHandler {
	if maxLimit < 1 {
		maxLimit = defaultMaxPageLimit
	}
	return &RankingsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetPage handles GET /rankings/{kind}?range=&offset=&limit=.
func (h *RankingsHandler) HandleGetPage(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rankings"

	kind, rng, ok := parseBoard(w, r, op)
	if !ok {
		return
	}
	q := r.URL.Query()
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("offset must be a non-negative integer")))
		return
	}
	limit, err := intParam(q.Get("limit"), min(defaultPageLimit, h.maxLimit))
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("limit must be a non-negative integer")))
		return
	}
	if limit > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}

	page, err := h.deps.Page(r.Context(), kind, rng, offset, limit)
	if err != nil {
		writeReadError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleGetRank handles GET /rankings/{kind}/{subject_id}?range=.
func (h *RankingsHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"

	kind, rng, ok := parseBoard(w, r, op)
	if !ok {
		return
	}
	id, err := uuid.Parse(r.PathValue("subject_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("subject_id must be a UUID")))
		return
	}
	entry, err := h.deps.Rank(r.Context(), kind, rng, id)
	if err != nil {
		writeReadError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// parseBoard resolves the kind path value and range query parameter. It
// writes a 404 and reports false when either is unknown.
func parseBoard(w http.ResponseWriter, r *http.Request, op string) (model.Kind, model.TimeRange, bool) {
	kind, err := model.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
		return "", "", false
	}
	rng, err := model.ParseTimeRange(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
		return "", "", false
	}
	return kind, rng, true
}

func writeReadError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ranking.ErrWindowOutOfRange):
		writeError(w, http.StatusBadRequest, "window_out_of_range", Wrap(op, err))
	case errors.Is(err, types.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
