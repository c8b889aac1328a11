package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/standings/internal/adapters/http/api"
	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/internal/domain/ranking"
	"github.com/okian/standings/internal/domain/types"
)

type mockDeps struct {
	mu             sync.Mutex
	seen           map[string]bool
	enqueueSuccess bool
	enqueued       []model.Event

	page      types.Page
	pageErr   error
	lastPage  [2]int
	entry     types.Entry
	rankErr   error
	lastKind  model.Kind
	lastRange model.TimeRange
}

func newMockDeps() *mockDeps {
	return &mockDeps{seen: make(map[string]bool), enqueueSuccess: true}
}

func (m *mockDeps) SeenAndRecord(_ context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[id] {
		return true
	}
	m.seen[id] = true
	return false
}

func (m *mockDeps) Unrecord(_ context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, id)
}

func (m *mockDeps) Size() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.seen))
}

func (m *mockDeps) Enqueue(_ context.Context, e model.Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enqueueSuccess {
		return false
	}
	m.enqueued = append(m.enqueued, e)
	return true
}

func (m *mockDeps) Page(_ context.Context, kind model.Kind, rng model.TimeRange, offset, limit int) (types.Page, error) {
	m.lastKind, m.lastRange, m.lastPage = kind, rng, [2]int{offset, limit}
	return m.page, m.pageErr
}

func (m *mockDeps) Rank(_ context.Context, kind model.Kind, rng model.TimeRange, _ model.SubjectID) (types.Entry, error) {
	m.lastKind, m.lastRange = kind, rng
	return m.entry, m.rankErr
}

type mockStats struct{}

func (mockStats) GetStats() map[string]any { return map[string]any{"started": true} }

func newMux(deps *mockDeps, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, mockStats{}, opts...).Register(mux)
	return mux
}

func do(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func errorCode(rec *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return body.Code
}

func eventBody(eventID, subjectID, kind, ts string, amount int) string {
	return fmt.Sprintf(`{"event_id":%q,"subject_id":%q,"subject_name":"n","kind":%q,"amount":%d,"ts":%q}`,
		eventID, subjectID, kind, amount, ts)
}

func TestEventsHandler(t *testing.T) {
	Convey("Given the events endpoint", t, func() {
		deps := newMockDeps()
		mux := newMux(deps)
		subject := uuid.NewString()
		const ts = "2026-01-02T03:04:05Z"

		Convey("A valid event is accepted and converted", func() {
			rec := do(mux, http.MethodPost, "/events", eventBody("e1", subject, "BREAK_COUNT", ts, 7))
			So(rec.Code, ShouldEqual, http.StatusAccepted)
			So(deps.enqueued, ShouldHaveLength, 1)
			e := deps.enqueued[0]
			So(e.Kind, ShouldEqual, model.KindBreakCount)
			So(e.Amount, ShouldEqual, 7)
			So(e.Subject.ID.String(), ShouldEqual, subject)
			So(e.TS.Year(), ShouldEqual, 2026)
		})

		Convey("A repeated event id is acknowledged as a duplicate", func() {
			So(do(mux, http.MethodPost, "/events", eventBody("e1", subject, "vote_count", ts, 1)).Code, ShouldEqual, http.StatusAccepted)
			rec := do(mux, http.MethodPost, "/events", eventBody("e1", subject, "vote_count", ts, 1))
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"duplicate":true`)
			So(deps.enqueued, ShouldHaveLength, 1)
		})

		Convey("Backpressure returns 429 and forgets the id", func() {
			deps.enqueueSuccess = false
			rec := do(mux, http.MethodPost, "/events", eventBody("e2", subject, "play_ticks", ts, 1))
			So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
			So(errorCode(rec), ShouldEqual, "backpressure")
			So(deps.Size(), ShouldEqual, 0)
		})

		Convey("Malformed events are rejected", func() {
			bad := []string{
				`not json`,
				eventBody("", subject, "break_count", ts, 1),
				eventBody("e", "not-a-uuid", "break_count", ts, 1),
				eventBody("e", subject, "dance_moves", ts, 1),
				eventBody("e", subject, "break_count", "yesterday", 1),
				eventBody("e", subject, "break_count", ts, -1),
				fmt.Sprintf(`{"event_id":"e","subject_id":%q,"kind":"break_count","amount":%d,"ts":%q}`,
					subject, model.MaxAmount+1, ts),
			}
			for _, body := range bad {
				rec := do(mux, http.MethodPost, "/events", body)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(rec), ShouldEqual, "bad_request")
			}
			So(deps.enqueued, ShouldBeEmpty)
		})

		Convey("Other methods are not allowed", func() {
			So(do(mux, http.MethodGet, "/events", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestRankingsHandler(t *testing.T) {
	Convey("Given the rankings endpoints", t, func() {
		deps := newMockDeps()
		deps.page = types.Page{Kind: "build_count", Range: "all", Total: 1, Entries: []types.Entry{{Rank: 1, Value: 4}}}
		mux := newMux(deps, api.WithMaxPageLimit(50))

		Convey("Defaults apply when no parameters are given", func() {
			rec := do(mux, http.MethodGet, "/rankings/build_count", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(deps.lastKind, ShouldEqual, model.KindBuildCount)
			So(deps.lastRange, ShouldEqual, model.TimeRangeAll)
			So(deps.lastPage, ShouldResemble, [2]int{0, 10})

			var page types.Page
			So(json.Unmarshal(rec.Body.Bytes(), &page), ShouldBeNil)
			So(page.Total, ShouldEqual, 1)
			So(page.Entries[0].Value, ShouldEqual, 4)
		})

		Convey("Range, offset and limit are passed through", func() {
			rec := do(mux, http.MethodGet, "/rankings/vote_count?range=last_one_week&offset=5&limit=50", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(deps.lastRange, ShouldEqual, model.TimeRangeLastOneWeek)
			So(deps.lastPage, ShouldResemble, [2]int{5, 50})
		})

		Convey("Bad parameters are rejected", func() {
			So(errorCode(do(mux, http.MethodGet, "/rankings/vote_count?limit=51", "")), ShouldEqual, "limit_exceeded")
			So(errorCode(do(mux, http.MethodGet, "/rankings/vote_count?limit=abc", "")), ShouldEqual, "bad_request")
			So(errorCode(do(mux, http.MethodGet, "/rankings/vote_count?offset=-1", "")), ShouldEqual, "bad_request")
		})

		Convey("Unknown kinds and ranges are not found", func() {
			rec := do(mux, http.MethodGet, "/rankings/dance_moves", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			rec = do(mux, http.MethodGet, "/rankings/vote_count?range=forever", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Window errors map to 400", func() {
			deps.pageErr = &ranking.WindowError{Offset: 9, Limit: 1, Len: 1}
			rec := do(mux, http.MethodGet, "/rankings/vote_count?offset=9", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(rec), ShouldEqual, "window_out_of_range")
		})

		Convey("Store failures map to 500", func() {
			deps.pageErr = fmt.Errorf("boom")
			So(do(mux, http.MethodGet, "/rankings/vote_count", "").Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("A subject lookup returns its entry", func() {
			id := uuid.NewString()
			deps.entry = types.Entry{Rank: 3, SubjectID: id, Value: 8}
			rec := do(mux, http.MethodGet, "/rankings/play_ticks/"+id+"?range=last_one_day", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(deps.lastRange, ShouldEqual, model.TimeRangeLastOneDay)
			So(rec.Body.String(), ShouldContainSubstring, `"rank":3`)
		})

		Convey("A subject lookup validates and maps not found", func() {
			So(do(mux, http.MethodGet, "/rankings/play_ticks/nope", "").Code, ShouldEqual, http.StatusBadRequest)

			deps.rankErr = fmt.Errorf("subject: %w", types.ErrNotFound)
			rec := do(mux, http.MethodGet, "/rankings/play_ticks/"+uuid.NewString(), "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(errorCode(rec), ShouldEqual, "not_found")
		})
	})
}

func TestStatsAndHealth(t *testing.T) {
	Convey("Given the operational endpoints", t, func() {
		mux := newMux(newMockDeps())

		Convey("Stats are served as JSON", func() {
			rec := do(mux, http.MethodGet, "/stats", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			So(rec.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Health serves the metrics registry", func() {
			_ = do(mux, http.MethodGet, "/stats", "")
			rec := do(mux, http.MethodGet, "/healthz", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "standings_")
		})
	})
}

func TestError(t *testing.T) {
	Convey("API errors expose their kind and cause", t, func() {
		cause := fmt.Errorf("bad field")
		err := api.WrapKind("api.op", api.ErrBadRequest, cause)
		So(err.Error(), ShouldEqual, "api.op: bad request: bad field")
		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(api.Wrap("api.op", nil), ShouldBeNil)
		So(api.NewKind("api.op", api.ErrBackpressure).Error(), ShouldEqual, "api.op: backpressure")
	})
}
