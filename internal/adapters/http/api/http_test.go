package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/xpts/internal/adapters/http/api"
	"github.com/okian/xpts/internal/adapters/view"
	service "github.com/okian/xpts/internal/app"
	"github.com/okian/xpts/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const snapshotDoc = `{"gameweek": 7,
 "teams": [{"name": "LIV", "expected_goals_against": 0.9, "attack_strength": 2.1},
           {"name": "BOU", "expected_goals_against": 1.6, "attack_strength": 1.1}],
 "players": [
  {"id": "salah", "name": "Salah", "team": "LIV", "position": "MID", "price": "13.0",
   "minutes_history": [90,90,90,90], "expected_goals_per90": 0.6, "expected_assists_per90": 0.35,
   "creativity": 80, "expected_goals_against_team": 0.9, "form": 8.1, "selected_percent": 60},
  {"id": "kluivert", "name": "Kluivert", "team": "BOU", "position": "MID", "price": "5.5",
   "minutes_history": [90,70,90,45], "expected_goals_per90": 0.2, "expected_assists_per90": 0.15,
   "creativity": 40, "expected_goals_against_team": 1.6, "form": 4.0, "selected_percent": 3},
  {"id": "vvd", "name": "Van Dijk", "team": "LIV", "position": "DEF", "price": "6.5",
   "minutes_history": [90,90,90,90], "expected_goals_per90": 0.08, "expected_assists_per90": 0.03,
   "expected_goals_against_team": 0.9, "bonus_per_match": 0.4, "form": 5.0},
  {"id": "evanilson", "name": "Evanilson", "team": "BOU", "position": "FWD", "price": "7.0",
   "minutes_history": [90,90,0,90], "expected_goals_per90": 0.45, "expected_goals_against_team": 1.6,
   "form": 5.5, "fixture_opponent_strengths": [2, 4]},
  {"id": "alisson", "name": "Alisson", "team": "LIV", "position": "GK", "price": "5.5",
   "expected_goals_against_team": 0.9}]}`

func newMux(svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(svc, 0).Register(mux)
	return mux
}

func do(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Missing []string `json:"missing"`
}

func decodeError(w *httptest.ResponseRecorder) errorBody {
	var out errorBody
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestServer_Routes(t *testing.T) {
	Convey("Given an API server over a started service", t, func() {
		svc := service.New(service.WithTopN(10), service.WithMaxLimit(50))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc)

		Convey("Then the health endpoint answers", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"ok"`)
		})

		Convey("Then the metrics endpoint exposes the registry", func() {
			do(mux, http.MethodGet, "/healthz", "")
			w := do(mux, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "xpts_engine_http_requests_total")
		})

		Convey("When no snapshot is loaded", func() {
			w := do(mux, http.MethodGet, "/top/MID", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(decodeError(w).Code, ShouldEqual, "no_snapshot")
		})

		Convey("When a snapshot is uploaded", func() {
			w := do(mux, http.MethodPut, "/snapshot", snapshotDoc)
			So(w.Code, ShouldEqual, http.StatusOK)

			var stats service.Stats
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats.Gameweek, ShouldEqual, 7)
			So(stats.Players["MID"], ShouldEqual, 2)

			Convey("Then the top list is ranked by xPts", func() {
				w := do(mux, http.MethodGet, "/top/mid", "")
				So(w.Code, ShouldEqual, http.StatusOK)

				var ranking view.Ranking
				So(json.Unmarshal(w.Body.Bytes(), &ranking), ShouldBeNil)
				So(ranking.Position, ShouldEqual, "MID")
				So(ranking.Players, ShouldHaveLength, 2)
				So(ranking.Players[0].ID, ShouldEqual, "salah")
				So(ranking.Players[0].Rank, ShouldEqual, 1)
				So(ranking.Players[0].ExpectedPoints, ShouldBeGreaterThan, ranking.Players[1].ExpectedPoints)
			})

			Convey("Then filters narrow the pool", func() {
				w := do(mux, http.MethodGet, "/top/MID?max_price=6&max_selected=10", "")
				So(w.Code, ShouldEqual, http.StatusOK)

				var ranking view.Ranking
				So(json.Unmarshal(w.Body.Bytes(), &ranking), ShouldBeNil)
				So(ranking.Players, ShouldHaveLength, 1)
				So(ranking.Players[0].ID, ShouldEqual, "kluivert")
			})

			Convey("Then a zero ownership ceiling keeps unowned players only", func() {
				w := do(mux, http.MethodGet, "/top/MID?max_selected=0", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var mids view.Ranking
				So(json.Unmarshal(w.Body.Bytes(), &mids), ShouldBeNil)
				So(mids.Players, ShouldBeEmpty)

				w = do(mux, http.MethodGet, "/top/DEF?max_selected=0", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var defs view.Ranking
				So(json.Unmarshal(w.Body.Bytes(), &defs), ShouldBeNil)
				So(defs.Players, ShouldHaveLength, 1)
				So(defs.Players[0].ID, ShouldEqual, "vvd")
			})

			Convey("Then defenders can be ordered by goal involvement", func() {
				w := do(mux, http.MethodGet, "/top/DEF?order=xgi&min_minutes=0", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var defs view.Ranking
				So(json.Unmarshal(w.Body.Bytes(), &defs), ShouldBeNil)
				So(defs.Position, ShouldEqual, "DEF")
				So(defs.Players, ShouldHaveLength, 1)
				So(defs.Players[0].ID, ShouldEqual, "vvd")
				So(defs.Players[0].Rank, ShouldEqual, 1)

				w = do(mux, http.MethodGet, "/top/DEF?order=xgi&min_minutes=1", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(json.Unmarshal(w.Body.Bytes(), &defs), ShouldBeNil)
				So(defs.Players, ShouldBeEmpty)
			})

			Convey("Then a zero limit yields an empty list", func() {
				w := do(mux, http.MethodGet, "/top/MID?limit=0", "")
				So(w.Code, ShouldEqual, http.StatusOK)

				var ranking view.Ranking
				So(json.Unmarshal(w.Body.Bytes(), &ranking), ShouldBeNil)
				So(ranking.Players, ShouldBeEmpty)
			})

			Convey("Then bad query arguments are rejected", func() {
				for _, target := range []string{
					"/top/MID?limit=abc",
					"/top/MID?limit=-1",
					"/top/MID?limit=51",
					"/top/MID?max_price=cheap",
					"/top/MID?max_selected=101",
					"/top/MID?min_minutes=-5",
					"/top/MID?max_selected=NaN",
					"/top/MID?order=xgi",
					"/top/DEF?order=goals",
					"/top/GK",
					"/top/WB",
				} {
					w := do(mux, http.MethodGet, target, "")
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(decodeError(w).Code, ShouldEqual, "bad_request")
				}
			})

			Convey("Then all positions are listed", func() {
				w := do(mux, http.MethodGet, "/top?limit=1", "")
				So(w.Code, ShouldEqual, http.StatusOK)

				var all []view.Ranking
				So(json.Unmarshal(w.Body.Bytes(), &all), ShouldBeNil)
				So(all, ShouldHaveLength, 3)
				So(all[0].Position, ShouldEqual, "FWD")
				So(all[1].Position, ShouldEqual, "MID")
				So(all[2].Position, ShouldEqual, "DEF")
				So(all[2].Players[0].ID, ShouldEqual, "vvd")
			})

			Convey("Then a player can be explained", func() {
				w := do(mux, http.MethodGet, "/explain/DEF/vvd", "")
				So(w.Code, ShouldEqual, http.StatusOK)

				var e view.Explanation
				So(json.Unmarshal(w.Body.Bytes(), &e), ShouldBeNil)
				So(e.Player.ID, ShouldEqual, "vvd")
				So(e.PoolSize, ShouldEqual, 1)
				So(*e.CleanSheetProbability, ShouldBeGreaterThan, 0)
				So(*e.MinutesPoints, ShouldEqual, 2)
				So(e.Terms, ShouldNotBeEmpty)
			})

			Convey("Then explaining an unknown player is 404", func() {
				w := do(mux, http.MethodGet, "/explain/DEF/nobody", "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decodeError(w).Code, ShouldEqual, "not_found")
			})

			Convey("Then players can be compared in rank order", func() {
				w := do(mux, http.MethodGet, "/compare/MID?ids=kluivert,salah", "")
				So(w.Code, ShouldEqual, http.StatusOK)

				var out []view.Explanation
				So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
				So(out, ShouldHaveLength, 2)
				So(out[0].Player.ID, ShouldEqual, "salah")
			})

			Convey("Then a comparison with unknown ids lists them", func() {
				w := do(mux, http.MethodGet, "/compare/MID?ids=salah&ids=ghost,vvd", "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
				body := decodeError(w)
				So(body.Missing, ShouldResemble, []string{"ghost", "vvd"})
			})

			Convey("Then a comparison without ids is rejected", func() {
				w := do(mux, http.MethodGet, "/compare/MID", "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then a broken replacement keeps the previous pool", func() {
				broken := `{"gameweek": 8, "players": [
				  {"id": "x", "name": "X", "team": "LIV", "position": "FWD", "price": "5", "expected_goals_against_team": 0.9},
				  {"id": "x", "name": "Y", "team": "LIV", "position": "FWD", "price": "5", "expected_goals_against_team": 0.9}]}`
				w := do(mux, http.MethodPut, "/snapshot", broken)
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(decodeError(w).Code, ShouldEqual, "data_integrity")

				So(svc.GetStats().Gameweek, ShouldEqual, 7)
			})

			Convey("Then a player without an identity is a data integrity failure", func() {
				for _, field := range []string{`"id": "kluivert", `, `"name": "Kluivert", `} {
					w := do(mux, http.MethodPut, "/snapshot", strings.Replace(snapshotDoc, field, "", 1))
					So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
					So(decodeError(w).Code, ShouldEqual, "data_integrity")
				}
				So(svc.GetStats().Gameweek, ShouldEqual, 7)
			})

			Convey("Then an idle defender still reports zero minutes points", func() {
				idle := strings.Replace(snapshotDoc,
					"\"6.5\",\n   \"minutes_history\": [90,90,90,90]",
					"\"6.5\",\n   \"minutes_history\": [0,0,0,0]", 1)
				So(idle, ShouldNotEqual, snapshotDoc)
				So(do(mux, http.MethodPut, "/snapshot", idle).Code, ShouldEqual, http.StatusOK)

				w := do(mux, http.MethodGet, "/explain/DEF/vvd", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"minutes_points":0`)
				So(w.Body.String(), ShouldContainSubstring, `"clean_sheet_probability":`)
			})

			Convey("Then a malformed document is a bad request", func() {
				w := do(mux, http.MethodPut, "/snapshot", `{"gameweek": `)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("Then wrong methods are rejected", func() {
			w := do(mux, http.MethodGet, "/snapshot", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, http.MethodPut)

			w = do(mux, http.MethodPost, "/top/MID", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("Then stats are served", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"has_snapshot":false`)
		})
	})
}

func TestRequestID(t *testing.T) {
	Convey("Given a handler wrapped with RequestID", t, func() {
		var seen string
		h := api.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = logger.RequestID(r.Context())
			w.WriteHeader(http.StatusTeapot)
		}), logger.NewNop())

		Convey("When the request carries no id", func() {
			w := do(h, http.MethodGet, "/", "")
			So(w.Code, ShouldEqual, http.StatusTeapot)
			So(seen, ShouldNotBeEmpty)
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, seen)
		})

		Convey("When the request carries an id", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(seen, ShouldEqual, "abc-123")
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
		})
	})
}
