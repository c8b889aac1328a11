package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func gatheredNames(reg *prometheus.Registry) map[string]bool {
	families, err := reg.Gather()
	So(err, ShouldBeNil)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(
			WithNamespace("test"),
			WithSubsystem("unit"),
			WithHistogramBuckets([]float64{1, 10}),
			WithPrometheusRegistry(registry),
		)

		Convey("When metrics are touched", func() {
			manager.eventsAccepted.Inc()
			manager.rankingSize.WithLabelValues("vote_count", "all").Set(3)

			Convey("Then they are exported under the configured prefix", func() {
				names := gatheredNames(registry)
				So(names["test_unit_events_accepted_total"], ShouldBeTrue)
				So(names["test_unit_size"], ShouldBeTrue)
			})
		})

		Convey("When a second manager registers on the same registry", func() {
			Convey("Then registration panics on the duplicate collectors", func() {
				So(func() { NewManager(WithNamespace("test"), WithSubsystem("unit"), WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording through the package functions", func() {
			So(func() {
				RecordEventAccepted()
				RecordEventDuplicate()
				RecordEventRejected("invalid")
				RecordAttribution("break_count")
				UpdateQueueSize(5)
				UpdateQueueCapacity(10)
				RecordQueueEnqueueError("full")
				UpdateWorkerCount(2)
				RecordWorkerError()
				RecordRankingRebuild("break_count", "all", 1.5, 7)
				RecordRankingRebuildError("break_count", "last_one_day")
				UpdateLastRefreshUnix(1)
				RecordStoreLatency("tallies", 0.3)
				UpdateStoreSubjects(7)
				RecordHTTPRequest("rankings", "GET", "200")
				RecordHTTPRequestDuration("rankings", "GET", "200", 2)
				RecordErrorByComponent("store", "timeout")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(4)
			}, ShouldNotPanic)

			Convey("Then the custom registry exposes them", func() {
				names := gatheredNames(GetRegistry())
				So(names["standings_ranking_events_accepted_total"], ShouldBeTrue)
				So(names["standings_ranking_rebuild_duration_milliseconds"], ShouldBeTrue)
				So(names["standings_ranking_size"], ShouldBeTrue)
				So(names["standings_ranking_http_requests_total"], ShouldBeTrue)
			})
		})
	})
}
