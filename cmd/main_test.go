package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/xpts/internal/adapters/http/api"
	"github.com/okian/xpts/internal/config"
	"github.com/okian/xpts/pkg/logger"
)

const snapshotDoc = `{"gameweek": 20, "players": [
  {"id": "m1", "name": "Saka", "team": "ARS", "position": "MID", "price": "10.0",
   "minutes_history": [90,90,85,90], "expected_goals_per90": 0.4, "expected_assists_per90": 0.3,
   "creativity": 75, "expected_goals_against_team": 0.9, "form": 6.5}]}`

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given configuration with a snapshot file", t, func() {
		path := filepath.Join(t.TempDir(), "gw20.json")
		convey.So(os.WriteFile(path, []byte(snapshotDoc), 0o600), convey.ShouldBeNil)
		t.Setenv("XPTS_SNAPSHOT_PATH", path)
		t.Setenv("XPTS_TOP_N", "5")

		ctx := context.Background()
		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)

		svc, err := newService(cfg, logger.NewNop())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		h := newHandler(cfg, svc, logger.NewNop())

		convey.Convey("Then the API answers from the loaded snapshot", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/top/MID", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "Saka")
			convey.So(w.Header().Get(api.RequestIDHeader), convey.ShouldNotBeEmpty)
		})

		convey.Convey("Then the docs and landing page are mounted", func() {
			for _, target := range []string{"/", "/api-docs", "/openapi.yaml", "/healthz", "/metrics"} {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then the MCP endpoint is mounted", func() {
			body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"t","version":"1"}}}`
			req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json, text/event-stream")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "xpts")
		})
	})

	convey.Convey("Given a missing snapshot file", t, func() {
		t.Setenv("XPTS_SNAPSHOT_PATH", filepath.Join(t.TempDir(), "absent.json"))

		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)

		svc, err := newService(cfg, logger.NewNop())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(context.Background()), convey.ShouldNotBeNil)
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.So(updateSystemMetrics, convey.ShouldNotPanic)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
	})
}
