package service_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/internal/domain/visibility"
)

// fakeWarehouse serves canned rows and applies filters the way the SQL
// adapters do.
type fakeWarehouse struct {
	mu        sync.Mutex
	cutoff    string
	rows      []model.Row
	tables    map[string][]model.Row
	meta      model.CutoffMetadata
	err       error
	cutoffErr error
	delay     time.Duration

	cutoffCalls      atomic.Int32
	leaderboardCalls atomic.Int32
	competitionCalls atomic.Int32
}

func (f *fakeWarehouse) set(fn func(f *fakeWarehouse)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeWarehouse) FetchCutoffMarker(context.Context) (string, error) {
	f.cutoffCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cutoffErr != nil {
		return "", f.cutoffErr
	}
	if f.err != nil {
		return "", f.err
	}
	return f.cutoff, nil
}

func (f *fakeWarehouse) FetchCutoffMetadata(context.Context) (model.CutoffMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.CutoffMetadata{}, f.err
	}
	return f.meta, nil
}

func (f *fakeWarehouse) FetchLeaderboard(_ context.Context, q model.LeaderboardQuery) ([]model.Row, error) {
	f.leaderboardCalls.Add(1)
	f.mu.Lock()
	rows, err, delay := f.rows, f.err, f.delay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	return model.Filter(rows, visibility.ForLeaderboard(q), q.Limit), nil
}

func (f *fakeWarehouse) FetchCompetitionRanks(_ context.Context, q model.CompetitionQuery) ([]model.Row, error) {
	f.competitionCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return model.Filter(f.tables[q.Table], q.Predicate, q.Limit), nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 31, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func leaderboardRows(version string) []model.Row {
	return []model.Row{
		{"rank_regional": 1, "region": "JATIM", "division": "AEGDA", "salesman_name": "Ani", "version": version,
			"omset_p3": 900_000.0, "omset_p4": 1_000_000.0, "target": 1_200_000.0, "total_score": 95.0},
		{"rank_regional": 1, "region": "JABAR", "division": "AEPDA", "salesman_name": "Budi", "version": version,
			"omset_p3": 500_000.0, "omset_p4": 500_000.0, "target": 600_000.0, "total_score": 90.0},
		{"rank_regional": 2, "region": "JATIM", "division": "AEPDA", "salesman_name": "Citra", "version": version,
			"omset_p3": 0.0, "omset_p4": 0.0, "target": 0.0, "total_score": 10.0},
	}
}

func competitionRows() []model.Row {
	return []model.Row{
		{"rank": 1, "region": "JATIM", "zona_rbm": "DP", "zona_bm": "DP-1", "cabang": "SBY"},
		{"rank": 2, "region": "JABAR", "zona_rbm": "EJ", "zona_bm": "EJ-1", "cabang": "BDG"},
		{"rank": 3, "region": "JATIM", "zona_rbm": "DP", "zona_bm": "DP-2", "cabang": "MLG"},
	}
}

func newWarehouse() *fakeWarehouse {
	tglUpdate := "2026-01-31"
	return &fakeWarehouse{
		cutoff: "2026-01-31",
		rows:   leaderboardRows("v1"),
		tables: map[string][]model.Row{"rank_rbm": competitionRows(), "rank_ass": competitionRows()},
		meta:   model.CutoffMetadata{TglUpdate: &tglUpdate},
	}
}

func testRegistry() *model.Registry {
	return model.NewRegistry(model.Competition{
		ID:     "amo_jan_2026",
		Title:  "MONITORING KOMPETISI AMO",
		Period: "JANUARI 2026",
		Tables: map[model.Level]string{
			model.LevelASS: "rank_ass",
			model.LevelRBM: "rank_rbm",
		},
	})
}

func ranksOf(rows []model.Row) []int {
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		n, _ := r.Rank()
		out = append(out, n)
	}
	return out
}

func namesOf(rows []model.Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		n, _ := r.Str("salesman_name")
		out = append(out, n)
	}
	return out
}

var errWarehouseDown = fmt.Errorf("connection refused: %w", model.ErrDataSource)
