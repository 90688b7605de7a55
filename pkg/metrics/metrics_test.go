package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewMetricsManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewMetricsManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording domain metrics", func() {
			Convey("Then helpers should not panic", func() {
				So(func() {
					RecordScoreIngested()
					RecordExtractionMiss()
					RecordEventDuplicate()
					RecordStatsRequest()
					RecordCorrection()
					RecordOCRLatency(12.5)
					RecordOCRError()
					RecordParserLatency(40)
					RecordParserError()
					RecordStoreQueryLatency(1.2)
					RecordStoreUpdateLatency(2.1)
					RecordStoreError()
					RecordArtistRegistered()
					RecordArtistLookupRetry()
					RecordArtistFallback()
					UpdateQueueSize(3)
					UpdateTotalUsers(10)
					RecordHTTPRequest("webhook", "POST", "200")
					RecordHTTPRequestDuration("webhook", "POST", "200", 5.0)
					RecordErrorByComponent("store", "timeout")
					RecordErrorByType("timeout", "medium")
					RecordErrorByEndpoint("webhook", "POST", "client_error")
					RecordErrorLatency("store", "timeout", 8.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When fetching the registry", func() {
			Convey("Then it should be non-nil", func() {
				So(GetRegistry(), ShouldNotBeNil)
			})
		})
	})
}
