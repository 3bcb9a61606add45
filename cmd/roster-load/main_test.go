package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/huddle/internal/rosterload"
)

func TestRootCommand(t *testing.T) {
	convey.Convey("Given the roster-load command", t, func() {
		convey.Convey("Then every flag should be registered", func() {
			for _, name := range []string{
				"url", "runs", "participants", "team-size", "profile", "workers",
				"timeout", "wait", "poll", "retries", "omit-rate", "seed",
				"output", "deadline", "log", "log-format",
			} {
				convey.So(rootCmd.Flags().Lookup(name), convey.ShouldNotBeNil)
			}
		})

		convey.Convey("When the service is unhealthy", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer srv.Close()

			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetErr(&bytes.Buffer{})
			rootCmd.SetArgs([]string{"--url", srv.URL, "--runs", "1"})
			err := rootCmd.Execute()

			convey.Convey("Then it should fail and still print stats", func() {
				convey.So(err, convey.ShouldNotBeNil)
				var stats rosterload.Stats
				convey.So(json.Unmarshal(out.Bytes(), &stats), convey.ShouldBeNil)
				convey.So(stats.Submitted, convey.ShouldEqual, 0)
			})
		})
	})
}
