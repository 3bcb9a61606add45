package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/huddle/internal/config"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("HUDDLE_ADDR", ":8080")
			_ = os.Setenv("HUDDLE_QUEUE_SIZE", "1000")
			_ = os.Setenv("HUDDLE_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("HUDDLE_ADDR")
				_ = os.Unsetenv("HUDDLE_QUEUE_SIZE")
				_ = os.Unsetenv("HUDDLE_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("HUDDLE_ADDR", "")
			defer func() { _ = os.Unsetenv("HUDDLE_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a service built from default configuration", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cfg := config.New(ctx)
		cfg.WorkerCount = 2
		cfg.ShuffleSeed = 3
		svc := newService(cfg, logger.Nop())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		mux := newMux(ctx, svc, logger.Nop())

		convey.Convey("When matching a roster over HTTP", func() {
			body := `{"team_size": 2, "participants": [
				{"id": "a", "number": 1, "gender": "female"},
				{"id": "b", "number": 2, "gender": "male"},
				{"id": "c", "number": 3, "gender": "female"},
				{"id": "d", "number": 4, "gender": "male"}
			]}`
			req := httptest.NewRequest("POST", "/matchings/sync", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.Convey("Then the result should come back", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"teams"`)
			})
		})

		convey.Convey("When requesting the API description", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest("GET", "/openapi.yaml", http.NoBody))

			convey.Convey("Then it should be served", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When refreshing metrics", func() {
			convey.Convey("Then the updaters should not panic", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
				convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		convey.Convey("Then the updater loops should return", func() {
			svc := newService(config.New(ctx), logger.Nop())
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestMetricsOptions(t *testing.T) {
	convey.Convey("Given metrics settings in the configuration", t, func() {
		cfg := config.New(context.Background())
		cfg.MetricsNamespace = "teams"
		cfg.MetricsSubsystem = "engine"
		cfg.MetricsLabels = map[string]string{"env": "staging"}
		cfg.MetricsLatencyBuckets = []float64{1, 5, 25}

		convey.Convey("When building a manager from them", func() {
			registry := prometheus.NewRegistry()
			metrics.NewManager(append(metricsOptions(cfg), metrics.WithPrometheusRegistry(registry))...)
			families, err := registry.Gather()

			convey.Convey("Then metric names and constant labels follow the settings", func() {
				convey.So(err, convey.ShouldBeNil)
				found := false
				for _, f := range families {
					convey.So(strings.HasPrefix(f.GetName(), "teams_engine_"), convey.ShouldBeTrue)
					if f.GetName() != "teams_engine_queue_size" {
						continue
					}
					found = true
					labels := f.GetMetric()[0].GetLabel()
					convey.So(labels, convey.ShouldHaveLength, 1)
					convey.So(labels[0].GetValue(), convey.ShouldEqual, "staging")
				}
				convey.So(found, convey.ShouldBeTrue)
			})
		})
	})
}
