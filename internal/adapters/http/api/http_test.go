package api_test

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/okian/scout/internal/adapters/http/api"
	"github.com/okian/scout/internal/adapters/repository"
	service "github.com/okian/scout/internal/app"
	"github.com/okian/scout/internal/domain/catalog"
	"github.com/okian/scout/internal/domain/chart"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/types"
	"github.com/okian/scout/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testCatalog() *catalog.Profiles {
	m := catalog.NewMetrics()
	_ = m.Register("m1", catalog.Physical, "M1")
	_ = m.Register("m2", catalog.Attack, "M2")
	_ = m.Register("m3", catalog.Defense, "M3")
	p := catalog.NewProfiles(m)
	_ = p.RegisterProfile("ST", []string{"m1", "m2", "m3"})
	_ = p.RegisterProfile("DM/CM", []string{"m1", "m3"})
	p.Seal()
	return p
}

func row(id, name, profile string, v float64) model.PlayerMetricRow {
	return model.PlayerMetricRow{
		RowID: id, PlayerID: "p" + id, PlayerName: name, Team: "Team " + id,
		Age: 20, Competition: "Eredivisie", Season: "2024/2025", ProfileKey: profile,
		Metrics: map[string]model.Value{
			"m1": model.Present(v),
			"m2": model.Present(v),
			"m3": model.Present(v),
		},
	}
}

func newRouter() (http.Handler, *service.Service) {
	charlie := row("3", "Charlie", "DM/CM", 60)
	charlie.European = true
	return routerOver([]model.PlayerMetricRow{
		row("1", "Alpha", "ST", 90),
		row("2", "Bravo", "ST", 20),
		charlie,
		{RowID: "4", PlayerName: "Delta", ProfileKey: "GK"},
	})
}

func routerOver(rows []model.PlayerMetricRow) (http.Handler, *service.Service) {
	svc := service.New(repository.NewMemoryStore(rows), testCatalog(), service.WithMaxCompare(2))
	So(svc.Start(context.Background()), ShouldBeNil)

	r := api.NewRouter()
	api.NewServer(svc, svc).Register(context.Background(), r)
	return api.RecoverMiddleware(r), svc
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder, v any) {
	So(sonic.Unmarshal(w.Body.Bytes(), v), ShouldBeNil)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type leaderboardBody struct {
	SnapshotID string `json:"snapshot_id"`
	Universe   int    `json:"universe"`
	Empty      bool   `json:"empty"`
	Rows       []struct {
		Rank       int      `json:"rank"`
		RowID      string   `json:"row_id"`
		ProfileKey string   `json:"profile"`
		European   bool     `json:"european"`
		Overall    *float64 `json:"overall"`
		Cells      struct {
			Physical *struct {
				Background string `json:"background"`
				Text       string `json:"text"`
			} `json:"physical"`
		} `json:"cells"`
	} `json:"rows"`
	Skipped []types.SkippedRow `json:"skipped"`
}

func TestServer_Leaderboard(t *testing.T) {
	Convey("Given a router over a started service", t, func() {
		h, svc := newRouter()
		defer svc.Stop()

		Convey("When requesting the leaderboard", func() {
			w := get(h, "/leaderboard?top_n=10")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")

			var body leaderboardBody
			decode(w, &body)

			Convey("Then rows are ranked with shaded cells", func() {
				So(body.SnapshotID, ShouldNotBeEmpty)
				So(body.Universe, ShouldEqual, 3)
				So(len(body.Rows), ShouldEqual, 3)
				So(body.Rows[0].RowID, ShouldEqual, "1")
				So(*body.Rows[0].Overall, ShouldEqual, 90)
				So(body.Rows[0].Cells.Physical.Text, ShouldEqual, "white")
				So(body.Rows[2].Cells.Physical.Background, ShouldEqual, "rgb(255, 255, 255)")
			})

			Convey("Then unscoreable rows are listed", func() {
				So(len(body.Skipped), ShouldEqual, 1)
				So(body.Skipped[0].RowID, ShouldEqual, "4")
			})
		})

		Convey("When filtering by an escaped profile", func() {
			w := get(h, "/leaderboard?profile=DM%2FCM")
			var body leaderboardBody
			decode(w, &body)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(len(body.Rows), ShouldEqual, 1)
			So(body.Rows[0].ProfileKey, ShouldEqual, "DM/CM")
		})

		Convey("When keeping only EU passport holders", func() {
			w := get(h, "/leaderboard?eu_only=true")
			var body leaderboardBody
			decode(w, &body)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(body.Universe, ShouldEqual, 1)
			So(len(body.Rows), ShouldEqual, 1)
			So(body.Rows[0].RowID, ShouldEqual, "3")
			So(body.Rows[0].European, ShouldBeTrue)

			w = get(h, "/leaderboard?eu_only=false")
			decode(w, &body)
			So(body.Universe, ShouldEqual, 3)
		})

		Convey("When nothing passes the thresholds", func() {
			w := get(h, "/leaderboard?min_physical=99")
			var body leaderboardBody
			decode(w, &body)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(body.Empty, ShouldBeTrue)
			So(body.Rows, ShouldBeEmpty)
		})

		Convey("When query values are malformed or out of range", func() {
			for _, target := range []string{
				"/leaderboard?top_n=abc",
				"/leaderboard?top_n=-3",
				"/leaderboard?top_n=501",
				"/leaderboard?min_attack=120",
				"/leaderboard?min_defense=x",
				"/leaderboard?age_min=30&age_max=20",
				"/leaderboard?eu_only=maybe",
			} {
				w := get(h, target)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body errorBody
				decode(w, &body)
				So(body.Code, ShouldEqual, "bad_request")
			}
		})

		Convey("When searching by name", func() {
			w := get(h, "/search?name=Bravo&name=Alpha")
			var body leaderboardBody
			decode(w, &body)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(len(body.Rows), ShouldEqual, 2)
			So(body.Rows[0].RowID, ShouldEqual, "1")
		})

		Convey("When searching without names", func() {
			So(get(h, "/search").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestServer_Charts(t *testing.T) {
	Convey("Given a router over a started service", t, func() {
		h, svc := newRouter()
		defer svc.Stop()

		Convey("When requesting a chart", func() {
			w := get(h, "/players/1/chart")
			So(w.Code, ShouldEqual, http.StatusOK)

			var p chart.Payload
			decode(w, &p)
			So(p.ProfileKey, ShouldEqual, "ST")
			So(len(p.Items), ShouldEqual, 3)
			So(p.Items[0].Color, ShouldResemble, chart.Gradient(chart.DefaultPalette().Physical, 90))
			So(p.Caption, ShouldEqual, "Physical: 90.0 | Attack: 90.0 | Defense: 90.0")
		})

		Convey("When charting under another profile", func() {
			w := get(h, "/players/1/chart?profile=DM%2FCM")
			So(w.Code, ShouldEqual, http.StatusOK)
			var p chart.Payload
			decode(w, &p)
			So(len(p.Items), ShouldEqual, 2)
		})

		Convey("When the row or profile is unknown", func() {
			So(get(h, "/players/nope/chart").Code, ShouldEqual, http.StatusNotFound)

			w := get(h, "/players/1/chart?profile=GK")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			var body errorBody
			decode(w, &body)
			So(body.Code, ShouldEqual, "unknown_profile")
		})

		Convey("When comparing players", func() {
			w := get(h, "/compare?row=1&row=2")
			So(w.Code, ShouldEqual, http.StatusOK)
			var payloads []chart.Payload
			decode(w, &payloads)
			So(len(payloads), ShouldEqual, 2)
		})

		Convey("When comparing too many players", func() {
			w := get(h, "/compare?row=1&row=2&row=3")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			var body errorBody
			decode(w, &body)
			So(body.Code, ShouldEqual, "too_many_players")
		})

		Convey("When comparing nobody", func() {
			So(get(h, "/compare").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestServer_Catalog(t *testing.T) {
	Convey("Given a router over a started service", t, func() {
		h, svc := newRouter()
		defer svc.Stop()

		Convey("When listing profiles", func() {
			w := get(h, "/profiles")
			So(w.Code, ShouldEqual, http.StatusOK)
			var profiles []struct {
				Key     string             `json:"key"`
				Metrics catalog.ByCategory `json:"metrics"`
			}
			decode(w, &profiles)
			So(len(profiles), ShouldEqual, 2)
			So(profiles[0].Key, ShouldEqual, "ST")
			So(profiles[1].Metrics.Attack, ShouldBeEmpty)
		})

		Convey("When fetching one profile by escaped key", func() {
			w := get(h, "/profiles/DM%2FCM")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"DM/CM"`)
		})

		Convey("When fetching an unknown profile", func() {
			So(get(h, "/profiles/GK").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When listing metrics", func() {
			w := get(h, "/metrics-catalog")
			So(w.Code, ShouldEqual, http.StatusOK)
			var defs []catalog.MetricDefinition
			decode(w, &defs)
			So(len(defs), ShouldEqual, 3)
			So(defs[1].Category, ShouldEqual, catalog.Attack)
		})

		Convey("When listing filter options", func() {
			w := get(h, "/filters")
			So(w.Code, ShouldEqual, http.StatusOK)
			var opts types.FilterOptions
			decode(w, &opts)
			So(opts.Profiles, ShouldResemble, []string{"ST", "DM/CM", "GK"})
		})
	})
}

func TestServer_Operational(t *testing.T) {
	Convey("Given a router over a started service", t, func() {
		h, svc := newRouter()
		defer svc.Stop()

		Convey("When scraping health and metrics", func() {
			_ = get(h, "/leaderboard")
			for _, target := range []string{"/healthz", "/metrics"} {
				w := get(h, target)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "scout_")
			}
		})

		Convey("When reading stats", func() {
			w := get(h, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]any
			decode(w, &stats)
			So(stats["started"], ShouldEqual, true)
			So(stats["totalRows"], ShouldEqual, float64(4))
		})

		Convey("When using the wrong method", func() {
			req := httptest.NewRequest(http.MethodPost, "/leaderboard", strings.NewReader("{}"))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestServer_NonFiniteCells(t *testing.T) {
	Convey("Given a CSV row with an infinite percentile", t, func() {
		rows, err := repository.ReadCSV(strings.NewReader("row_id,player_name,position,m1,m2,m3\n1,Alpha,ST,inf,50,50\n"))
		So(err, ShouldBeNil)
		h, svc := routerOver(rows)
		defer svc.Stop()

		Convey("When requesting the leaderboard", func() {
			w := get(h, "/leaderboard")

			Convey("Then the cell is treated as missing and the body is valid JSON", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body leaderboardBody
				decode(w, &body)
				So(len(body.Rows), ShouldEqual, 1)
				So(body.Rows[0].RowID, ShouldEqual, "1")
				So(body.Rows[0].Cells.Physical, ShouldBeNil)
			})
		})

		Convey("When requesting the chart", func() {
			w := get(h, "/players/1/chart")

			Convey("Then it encodes with the missing cell", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var p chart.Payload
				decode(w, &p)
				So(len(p.Items), ShouldEqual, 3)
				So(p.Items[0].Missing, ShouldBeTrue)
				So(p.Items[1].Value, ShouldEqual, 50)
			})
		})
	})
}

type infiniteStats struct{}

func (infiniteStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"ratio": math.Inf(1)}
}

func TestServer_EncodingFailure(t *testing.T) {
	Convey("Given a response that cannot be encoded", t, func() {
		r := api.NewRouter()
		api.NewServer(failingDeps{}, infiniteStats{}).Register(context.Background(), r)
		w := get(r, "/stats")

		Convey("Then the client gets a 500 with an error body", func() {
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			var body errorBody
			decode(w, &body)
			So(body.Code, ShouldEqual, "internal_error")
		})
	})
}

type failingDeps struct{ api.Dependencies }

func (failingDeps) Leaderboard(context.Context, types.LeaderboardQuery) (types.Leaderboard, error) {
	return types.Leaderboard{}, errors.New("database is down")
}

func (failingDeps) Chart(context.Context, string, string) (chart.Payload, error) {
	panic("boom")
}

type staticStats struct{}

func (staticStats) GetStats() map[string]interface{} { return map[string]interface{}{} }

func TestServer_Failures(t *testing.T) {
	Convey("Given dependencies that fail", t, func() {
		r := api.NewRouter()
		api.NewServer(failingDeps{}, staticStats{}).Register(context.Background(), r)
		h := api.RecoverMiddleware(r)

		Convey("Then unexpected errors become 500", func() {
			w := get(h, "/leaderboard")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			var body errorBody
			decode(w, &body)
			So(body.Message, ShouldContainSubstring, "database is down")
		})

		Convey("Then panics are recovered", func() {
			So(get(h, "/players/1/chart").Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}
