package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/salesboard/internal/adapters/http/api"
	"github.com/okian/salesboard/internal/domain/aggregate"
	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDeps records the arguments of the last call.
type mockDeps struct {
	rows     []model.Row
	err      error
	info     model.CacheInfo
	refreshes int

	leaderboardQuery model.LeaderboardQuery
	region           string
	limit            int
	key              model.CompetitionKey
	identity         model.Identity
	override         model.Override
}

func (m *mockDeps) GetLeaderboard(_ context.Context, q model.LeaderboardQuery) ([]model.Row, error) {
	m.leaderboardQuery = q
	return m.rows, m.err
}

func (m *mockDeps) GetTopSummary(_ context.Context, region string) ([]aggregate.Champion, error) {
	m.region = region
	return []aggregate.Champion{}, m.err
}

func (m *mockDeps) GetTopPerformers(_ context.Context, region string, limit int) ([]aggregate.Performer, error) {
	m.region, m.limit = region, limit
	return []aggregate.Performer{}, m.err
}

func (m *mockDeps) GetDivisions(_ context.Context, region string) ([]string, error) {
	m.region = region
	return []string{"RETAIL", "SME"}, m.err
}

func (m *mockDeps) GetRegions(context.Context) ([]string, error) {
	return []string{"R01", "R02"}, m.err
}

func (m *mockDeps) GetCutoff(context.Context) (model.CutoffMetadata, error) {
	d, ideal := "2026-01-31", 0.8
	return model.CutoffMetadata{TglUpdate: &d, Ideal: &ideal}, m.err
}

func (m *mockDeps) GetKPIs(_ context.Context, region string) (aggregate.KPI, error) {
	m.region = region
	return aggregate.KPI{}, m.err
}

func (m *mockDeps) GetSalesTrend(_ context.Context, region string) ([]aggregate.Period, error) {
	m.region = region
	return []aggregate.Period{}, m.err
}

func (m *mockDeps) GetRegionComparison(context.Context) ([]aggregate.RegionSummary, error) {
	return []aggregate.RegionSummary{}, m.err
}

func (m *mockDeps) Competitions() []model.Competition {
	return []model.Competition{{ID: "amo_jan_2026", Title: "AMO", Period: "Jan 2026"}}
}

func (m *mockDeps) GetCompetitionRanks(_ context.Context, key model.CompetitionKey, id model.Identity, o model.Override) ([]model.Row, error) {
	m.key, m.identity, m.override = key, id, o
	return m.rows, m.err
}

func (m *mockDeps) GetCacheInfo() model.CacheInfo { return m.info }

func (m *mockDeps) ForceRefresh(context.Context) error {
	m.refreshes++
	return m.err
}

// mockAuth maps bearer tokens to identities.
type mockAuth map[string]model.Identity

func (a mockAuth) Resolve(_ context.Context, authorization string) (model.Identity, error) {
	id, ok := a[strings.TrimPrefix(authorization, "Bearer ")]
	if !ok || authorization == "" {
		return model.Identity{}, fmt.Errorf("bad token: %w", model.ErrUnauthorized)
	}
	return id, nil
}

var users = mockAuth{
	"national": {Email: "nat@example.com", Role: "viewer", Region: model.AllRegions},
	"regional": {Email: "reg@example.com", Role: "bm", Region: "R06"},
	"admin":    {Email: "adm@example.com", Role: "admin", Region: model.AllRegions},
}

func newMux(deps *mockDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, users).Register(mux)
	return mux
}

func do(mux *http.ServeMux, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder, v any) {
	So(json.Unmarshal(w.Body.Bytes(), v), ShouldBeNil)
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDeps{rows: []model.Row{{"nik": "1"}}}
		mux := newMux(deps)

		Convey("Health answers without credentials", func() {
			w := do(mux, http.MethodGet, "/health", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var body map[string]any
			decode(w, &body)
			So(body["status"], ShouldEqual, "degraded")
			So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
		})

		Convey("A warm fresh cache is healthy", func() {
			stamp := time.Date(2026, 1, 31, 8, 0, 0, 0, time.UTC)
			deps.info.LastRefresh = &stamp
			w := do(mux, http.MethodGet, "/health", "")
			var body map[string]any
			decode(w, &body)
			So(body["status"], ShouldEqual, "healthy")
		})

		Convey("Metrics are exposed", func() {
			So(do(mux, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
			So(do(mux, http.MethodGet, "/metrics", "").Code, ShouldEqual, http.StatusOK)
		})

		Convey("A caller request id is echoed", func() {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
		})

		Convey("Protected routes reject a missing token", func() {
			w := do(mux, http.MethodGet, "/api/leaderboard", "")
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
			var body map[string]string
			decode(w, &body)
			So(body["code"], ShouldEqual, "unauthorized")
		})

		Convey("The cutoff date needs no token", func() {
			w := do(mux, http.MethodGet, "/api/leaderboard/cutoff-date", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var body map[string]string
			decode(w, &body)
			So(body["cutoff_date"], ShouldEqual, "2026-01-31")
		})
	})
}

func TestLeaderboardHandlers(t *testing.T) {
	Convey("Given the leaderboard routes", t, func() {
		deps := &mockDeps{rows: []model.Row{{"nik": "1"}, {"nik": "2"}}}
		mux := newMux(deps)

		Convey("A national user may pick a region", func() {
			w := do(mux, http.MethodGet, "/api/leaderboard?region=R02&division=SME&limit=5", "national")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.leaderboardQuery, ShouldResemble, model.LeaderboardQuery{Region: "R02", Division: "SME", Limit: 5})
			var rows []map[string]any
			decode(w, &rows)
			So(rows, ShouldHaveLength, 2)
		})

		Convey("A regional user is pinned to their region", func() {
			do(mux, http.MethodGet, "/api/leaderboard?region=R02", "regional")
			So(deps.leaderboardQuery.Region, ShouldEqual, "R06")
		})

		Convey("An invalid limit is a bad request", func() {
			w := do(mux, http.MethodGet, "/api/leaderboard?limit=abc", "national")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			w = do(mux, http.MethodGet, "/api/leaderboard?limit=0", "national")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Top performers default to ten", func() {
			w := do(mux, http.MethodGet, "/api/leaderboard/top-performers", "regional")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.limit, ShouldEqual, 10)
			So(deps.region, ShouldEqual, "R06")
		})

		Convey("Top summary uses the requester region", func() {
			do(mux, http.MethodGet, "/api/leaderboard/top-summary", "national")
			So(deps.region, ShouldEqual, model.AllRegions)
		})

		Convey("Divisions are wrapped", func() {
			w := do(mux, http.MethodGet, "/api/leaderboard/divisions", "regional")
			var body map[string][]string
			decode(w, &body)
			So(body["divisions"], ShouldResemble, []string{"RETAIL", "SME"})
		})

		Convey("National users see every region behind the national option", func() {
			w := do(mux, http.MethodGet, "/api/leaderboard/regions", "national")
			var body struct {
				Regions []struct {
					Code string `json:"code"`
					Name string `json:"name"`
				} `json:"regions"`
			}
			decode(w, &body)
			So(body.Regions, ShouldHaveLength, 3)
			So(body.Regions[0].Code, ShouldEqual, model.AllRegions)
			So(body.Regions[0].Name, ShouldEqual, "NATIONAL (ALL)")
		})

		Convey("Regional users see only their own region", func() {
			w := do(mux, http.MethodGet, "/api/leaderboard/regions", "regional")
			var body struct {
				Regions []struct {
					Code string `json:"code"`
				} `json:"regions"`
			}
			decode(w, &body)
			So(body.Regions, ShouldHaveLength, 1)
			So(body.Regions[0].Code, ShouldEqual, "R06")
		})

		Convey("Data source failures map to 503", func() {
			deps.err = fmt.Errorf("leaderboard: %w", model.ErrDataSource)
			w := do(mux, http.MethodGet, "/api/leaderboard", "national")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("Unclassified failures map to 500", func() {
			deps.err = errors.New("boom")
			w := do(mux, http.MethodGet, "/api/leaderboard", "national")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("Server side failures do not leak their detail", func() {
			deps.err = fmt.Errorf("SELECT * FROM leaderboard: dial tcp 10.0.0.7:9000: %w", model.ErrDataSource)
			w := do(mux, http.MethodGet, "/api/leaderboard", "national")
			var body map[string]string
			decode(w, &body)
			So(body["code"], ShouldEqual, "data_source_unavailable")
			So(body["message"], ShouldEqual, http.StatusText(http.StatusServiceUnavailable))
			So(w.Body.String(), ShouldNotContainSubstring, "SELECT")
		})

		Convey("Client errors keep their message", func() {
			w := do(mux, http.MethodGet, "/api/leaderboard?limit=abc", "national")
			var body map[string]string
			decode(w, &body)
			So(body["message"], ShouldContainSubstring, "abc")
		})
	})
}

func TestDashboardHandlers(t *testing.T) {
	Convey("Given the dashboard routes", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("KPIs follow the effective region", func() {
			w := do(mux, http.MethodGet, "/api/dashboard/kpis?region=R01", "regional")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.region, ShouldEqual, "R06")
			do(mux, http.MethodGet, "/api/dashboard/sales-trend?region=R01", "national")
			So(deps.region, ShouldEqual, "R01")
		})

		Convey("Region comparison is national only", func() {
			So(do(mux, http.MethodGet, "/api/dashboard/region-comparison", "regional").Code, ShouldEqual, http.StatusForbidden)
			So(do(mux, http.MethodGet, "/api/dashboard/region-comparison", "national").Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestCompetitionHandlers(t *testing.T) {
	Convey("Given the competition routes", t, func() {
		deps := &mockDeps{rows: []model.Row{{"rank": 1}}}
		mux := newMux(deps)

		Convey("The list is wrapped in data", func() {
			w := do(mux, http.MethodGet, "/api/competitions/list", "regional")
			var body map[string][]map[string]string
			decode(w, &body)
			So(body["data"][0]["id"], ShouldEqual, "amo_jan_2026")
		})

		Convey("Ranks carry the cutoff metadata", func() {
			w := do(mux, http.MethodGet, "/api/dashboard/competition/amo_feb_2026/BM", "regional")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.key, ShouldResemble, model.CompetitionKey{CompetitionID: "amo_feb_2026", Level: model.LevelBM})
			var body struct {
				Data     []map[string]any `json:"data"`
				Metadata struct {
					TglUpdate string `json:"tgl_update"`
				} `json:"metadata"`
			}
			decode(w, &body)
			So(body.Data, ShouldHaveLength, 1)
			So(body.Metadata.TglUpdate, ShouldEqual, "2026-01-31")
		})

		Convey("The legacy route serves the default competition", func() {
			do(mux, http.MethodGet, "/api/dashboard/competition/ass", "regional")
			So(deps.key.CompetitionID, ShouldEqual, api.DefaultCompetitionID)
			So(deps.key.Level, ShouldEqual, model.LevelASS)
		})

		Convey("Only administrators may override the filters", func() {
			do(mux, http.MethodGet, "/api/dashboard/competition/rbm?region=R01&zone=Z1", "regional")
			So(deps.override.Empty(), ShouldBeTrue)
			So(deps.identity.Region, ShouldEqual, "R06")

			do(mux, http.MethodGet, "/api/dashboard/competition/rbm?region=R01&zone=Z1", "admin")
			So(deps.override, ShouldResemble, model.Override{Region: "R01", Zone: "Z1"})
		})

		Convey("National viewers narrow by region through their identity", func() {
			do(mux, http.MethodGet, "/api/dashboard/competition/amo_jan_2026/rbm?region=JATIM&zone=Z1", "national")
			So(deps.override.Empty(), ShouldBeTrue)
			So(deps.identity.Region, ShouldEqual, "JATIM")
			So(deps.identity.Email, ShouldEqual, "nat@example.com")

			do(mux, http.MethodGet, "/api/dashboard/competition/amo_jan_2026/rbm", "national")
			So(deps.identity.Region, ShouldEqual, model.AllRegions)
		})

		Convey("An unknown level is a bad request", func() {
			w := do(mux, http.MethodGet, "/api/dashboard/competition/amo_jan_2026/cfo", "admin")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestCacheHandlers(t *testing.T) {
	Convey("Given the cache routes", t, func() {
		deps := &mockDeps{info: model.CacheInfo{TotalRecords: 42}}
		mux := newMux(deps)

		Convey("Info is returned to any user", func() {
			w := do(mux, http.MethodGet, "/api/cache/info", "regional")
			var info model.CacheInfo
			decode(w, &info)
			So(info.TotalRecords, ShouldEqual, 42)
		})

		Convey("Refresh requires an administrator", func() {
			So(do(mux, http.MethodPost, "/api/cache/refresh", "regional").Code, ShouldEqual, http.StatusForbidden)
			So(deps.refreshes, ShouldEqual, 0)

			w := do(mux, http.MethodPost, "/api/cache/refresh", "admin")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.refreshes, ShouldEqual, 1)
			var body map[string]any
			decode(w, &body)
			So(body["status"], ShouldEqual, "refreshed")
		})

		Convey("Refresh accepts POST only", func() {
			So(do(mux, http.MethodGet, "/api/cache/refresh", "admin").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}
