package loadgen

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/standings/internal/adapters/http/api"
	service "github.com/okian/standings/internal/app"
	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func entries(pairs ...[2]int) []Entry {
	out := make([]Entry, len(pairs))
	for i, p := range pairs {
		out[i] = Entry{Rank: p[0], Value: uint64(p[1])}
	}
	return out
}

func TestVerifyRanking(t *testing.T) {
	Convey("VerifyRanking accepts competition ranking", t, func() {
		So(VerifyRanking(nil), ShouldBeNil)
		So(VerifyRanking(entries([2]int{1, 10}, [2]int{1, 10}, [2]int{3, 8}, [2]int{3, 8}, [2]int{5, 5})), ShouldBeNil)
		So(VerifyRanking(entries([2]int{1, 0}, [2]int{1, 0})), ShouldBeNil)
	})

	Convey("VerifyRanking rejects broken rankings", t, func() {
		cases := [][]Entry{
			entries([2]int{2, 10}),
			entries([2]int{1, 10}, [2]int{2, 10}),
			entries([2]int{1, 10}, [2]int{1, 10}, [2]int{2, 8}),
			entries([2]int{1, 5}, [2]int{2, 8}),
		}
		for _, c := range cases {
			So(errors.Is(VerifyRanking(c), ErrVerification), ShouldBeTrue)
		}
	})
}

func TestVerifyTotals(t *testing.T) {
	Convey("VerifyTotals compares served values with submitted sums", t, func() {
		got := []Entry{{SubjectID: "a", Value: 3}, {SubjectID: "b", Value: 1}}
		So(VerifyTotals(got, map[string]uint64{"a": 3, "b": 1}), ShouldBeNil)
		So(errors.Is(VerifyTotals(got, map[string]uint64{"a": 3}), ErrVerification), ShouldBeTrue)
		So(errors.Is(VerifyTotals(got, map[string]uint64{"a": 3, "b": 2}), ErrVerification), ShouldBeTrue)
		So(errors.Is(VerifyTotals(got, map[string]uint64{"a": 3, "c": 1}), ErrVerification), ShouldBeTrue)
		So(VerifyTotals(nil, nil), ShouldBeNil)
	})
}

func TestGenerateEvents(t *testing.T) {
	Convey("Generated events are valid and spread over the subject pool", t, func() {
		events := generateEvents(200, 5, time.Now())
		So(events, ShouldHaveLength, 200)

		subjects := map[string]struct{}{}
		ids := map[string]struct{}{}
		for _, e := range events {
			_, err := model.ParseKind(e.Kind)
			So(err, ShouldBeNil)
			So(e.Amount, ShouldBeLessThanOrEqualTo, uint64(maxAmount))
			subjects[e.SubjectID] = struct{}{}
			ids[e.EventID] = struct{}{}
		}
		So(len(subjects), ShouldBeLessThanOrEqualTo, 5)
		So(ids, ShouldHaveLength, 200)

		Convey("Only accepted events count toward expected totals", func() {
			accepted := make([]bool, len(events))
			accepted[0] = true
			want := expectedTotals(events, accepted)
			So(want, ShouldHaveLength, 1)
			So(want[events[0].Kind][events[0].SubjectID], ShouldEqual, events[0].Amount)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a live service behind an HTTP server", t, func() {
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithQueueSize(10_000),
			service.WithRefreshInterval(20*time.Millisecond),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("A load run verifies every kind", func() {
			stats, err := Run(context.Background(), &Config{
				BaseURL:     srv.URL,
				NumEvents:   500,
				NumSubjects: 40,
				Workers:     8,
				Timeout:     5 * time.Second,
				Wait:        300 * time.Millisecond,
				PageSize:    7,
			})
			So(err, ShouldBeNil)
			So(stats.EventsGenerated, ShouldEqual, 500)
			So(stats.EventsAccepted, ShouldEqual, 500)
			So(stats.RankingsVerified, ShouldEqual, len(model.Kinds()))
		})
	})
}
