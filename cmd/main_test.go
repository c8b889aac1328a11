package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smartystreets/goconvey/convey"

	app "github.com/okian/standings/internal/app"
	"github.com/okian/standings/internal/config"
	"github.com/okian/standings/internal/domain/types"
	"github.com/okian/standings/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestHandler(t *testing.T) {
	convey.Convey("Given the assembled handler over a running service", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.MaxPageLimit = 5

		svc := app.New(app.WithWorkerCount(2), app.WithRefreshInterval(time.Hour))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		srv := httptest.NewServer(newHandler(ctx, svc, cfg))
		defer srv.Close()

		convey.Convey("Docs, stats and health routes respond", func() {
			for _, path := range []string{"/api-docs", "/openapi.yaml", "/stats", "/healthz"} {
				resp, err := http.Get(srv.URL + path)
				convey.So(err, convey.ShouldBeNil)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("The configured page limit is enforced", func() {
			resp, err := http.Get(srv.URL + "/rankings/break_count?limit=6")
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("An event flows through to the ranking", func() {
			subject := uuid.NewString()
			body := fmt.Sprintf(`{"event_id":"e-1","subject_id":%q,"subject_name":"ada","kind":"build_count","amount":3,"ts":%q}`, subject, time.Now().UTC().Format(time.RFC3339))
			resp, err := http.Post(srv.URL+"/events", "application/json", strings.NewReader(body))
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusAccepted)

			var page types.Page
			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) && page.Total == 0 {
				_ = svc.Refresh(ctx)
				resp, err := http.Get(srv.URL + "/rankings/build_count")
				convey.So(err, convey.ShouldBeNil)
				_ = json.NewDecoder(resp.Body).Decode(&page)
				_ = resp.Body.Close()
				time.Sleep(10 * time.Millisecond)
			}
			convey.So(page.Total, convey.ShouldEqual, 1)
			convey.So(page.Entries[0].SubjectID, convey.ShouldEqual, subject)
			convey.So(page.Entries[0].Rank, convey.ShouldEqual, 1)
		})
	})
}

func TestRunShutsDownOnCancel(t *testing.T) {
	convey.Convey("Given run with a free port", t, func() {
		cfg := config.New(context.Background())
		cfg.Addr = "127.0.0.1:0"

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- run(ctx, cfg) }()
		time.Sleep(100 * time.Millisecond)
		cancel()

		convey.Convey("It returns cleanly after cancellation", func() {
			select {
			case err := <-done:
				convey.So(err, convey.ShouldBeNil)
			case <-time.After(15 * time.Second):
				convey.So("run did not return", convey.ShouldBeEmpty)
			}
		})
	})
}

func TestRunRejectsUnknownStore(t *testing.T) {
	convey.Convey("run fails fast on an unknown store", t, func() {
		cfg := config.New(context.Background())
		cfg.Store = "cassandra"
		err := run(context.Background(), cfg)
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "cassandra")
	})
}
