// Package warehouse reads leaderboard, competition and cutoff data from the
// analytical warehouse. ClickHouse and Snowflake are supported; both render
// the same visibility predicate into SQL and return rows in the shape the
// cache filters in memory.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/pkg/logger"
	"github.com/okian/salesboard/pkg/metrics"
	"github.com/sony/gobreaker/v2"
)

// Supported drivers.
const (
	DriverClickHouse = "clickhouse"
	DriverSnowflake  = "snowflake"
)

// Querier executes statements against one engine.
type Querier interface {
	// Driver names the engine for metrics and breaker names.
	Driver() string
	// Bind returns the placeholder and driver argument of parameter i.
	Bind(i int, v any) (string, any)
	// Query runs st and returns its rows with lower-case column names.
	Query(ctx context.Context, st Statement) ([]model.Row, error)
	Close() error
}

// Zones are the competition zones of a region.
type Zones struct {
	RBM string
	BM  string
}

// Warehouse implements the cache data source on top of a Querier.
type Warehouse struct {
	q       Querier
	tables  Tables
	timeout time.Duration
	logger  logger.Logger

	maxFailures uint32
	openFor     time.Duration
	breaker     *gobreaker.CircuitBreaker[[]model.Row]
}

// Open connects to the warehouse identified by driver and dsn.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Warehouse, error) {
	var (
		q   Querier
		err error
	)
	switch driver {
	case DriverClickHouse:
		q, err = OpenClickHouse(ctx, dsn)
	case DriverSnowflake:
		q, err = OpenSnowflake(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if err != nil {
		return nil, err
	}
	w, err := New(q, opts...)
	if err != nil {
		_ = q.Close()
		return nil, err
	}
	return w, nil
}

// New wraps q. Table names are validated as plain identifiers.
func New(q Querier, opts ...Option) (*Warehouse, error) {
	w := &Warehouse{
		q: q,
		tables: Tables{
			Leaderboard: DefaultLeaderboardTable,
			Cutoff:      DefaultCutoffTable,
			Zones:       DefaultZoneTable,
		},
		timeout:     DefaultQueryTimeout,
		maxFailures: DefaultMaxFailures,
		openFor:     DefaultBreakerOpenFor,
		logger:      logger.Get(),
	}
	for _, opt := range opts {
		opt(w)
	}
	for _, t := range []string{w.tables.Leaderboard, w.tables.Cutoff, w.tables.Zones} {
		if err := checkIdentifier(t); err != nil {
			return nil, err
		}
	}
	w.logger = w.logger.Named("warehouse")
	w.breaker = newBreaker("warehouse_"+q.Driver(), w.maxFailures, w.openFor, w.logger)
	return w, nil
}

// Close releases the underlying connection.
func (w *Warehouse) Close() error { return w.q.Close() }

// run executes st under the query timeout and the breaker. Failures are
// wrapped with model.ErrDataSource.
func (w *Warehouse) run(ctx context.Context, name string, st Statement) ([]model.Row, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	rows, err := w.breaker.Execute(func() ([]model.Row, error) {
		return w.q.Query(ctx, st)
	})
	metrics.RecordWarehouseQuery(w.q.Driver(), name, float64(time.Since(start).Milliseconds()), err)
	if err != nil {
		if !rejected(err) && !errors.Is(err, context.Canceled) {
			w.logger.Warn(ctx, "warehouse query failed",
				logger.String("query", name),
				logger.Duration("elapsed", time.Since(start)),
				logger.Error(err))
		}
		return nil, fmt.Errorf("%s: %w: %w", name, model.ErrDataSource, err)
	}
	return rows, nil
}

// FetchCutoffMarker returns the latest update marker of the cutoff table.
func (w *Warehouse) FetchCutoffMarker(ctx context.Context) (string, error) {
	rows, err := w.run(ctx, "cutoff_marker", cutoffMarkerStatement(w.tables.Cutoff))
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("cutoff_marker: %w: %w", model.ErrDataSource, ErrNoCutoff)
	}
	marker := rows[0]["marker"]
	if marker == nil || marker == "" {
		return "", fmt.Errorf("cutoff_marker: %w: %w", model.ErrDataSource, ErrNoCutoff)
	}
	if s, ok := marker.(string); ok {
		return s, nil
	}
	return fmt.Sprint(marker), nil
}

// FetchCutoffMetadata returns the cutoff date and ideal progress. An empty
// cutoff table yields zero metadata.
func (w *Warehouse) FetchCutoffMetadata(ctx context.Context) (model.CutoffMetadata, error) {
	rows, err := w.run(ctx, "cutoff_metadata", cutoffMetadataStatement(w.tables.Cutoff))
	if err != nil {
		return model.CutoffMetadata{}, err
	}
	var meta model.CutoffMetadata
	if len(rows) == 0 {
		return meta, nil
	}
	row := rows[0]
	if v, present := row["tgl_update"]; present && v != nil {
		s := fmt.Sprint(v)
		meta.TglUpdate = &s
	}
	if f, ok := row.Float("ideal"); ok {
		meta.Ideal = &f
	}
	return meta, nil
}

// FetchLeaderboard returns leaderboard rows ordered by regional rank.
func (w *Warehouse) FetchLeaderboard(ctx context.Context, q model.LeaderboardQuery) ([]model.Row, error) {
	st, err := leaderboardStatement(w.q.Bind, w.tables.Leaderboard, q)
	if err != nil {
		return nil, err
	}
	return w.run(ctx, "leaderboard", st)
}

// FetchCompetitionRanks returns normalised competition rows visible under
// q.Predicate, ordered by the level's rank column.
func (w *Warehouse) FetchCompetitionRanks(ctx context.Context, q model.CompetitionQuery) ([]model.Row, error) {
	st, err := competitionStatement(w.q.Bind, q)
	if err != nil {
		return nil, err
	}
	raw, err := w.run(ctx, "competition_"+string(q.Key.Level), st)
	if err != nil {
		return nil, err
	}
	out := make([]model.Row, len(raw))
	for i, r := range raw {
		out[i] = normalizeCompetition(q.Key.Level, r)
	}
	return out, nil
}

// FetchZones resolves the competition zones of region. Unknown regions
// yield empty zones.
func (w *Warehouse) FetchZones(ctx context.Context, region string) (Zones, error) {
	rows, err := w.run(ctx, "zones", zonesStatement(w.q.Bind, w.tables.Zones, region))
	if err != nil {
		return Zones{}, err
	}
	if len(rows) == 0 {
		return Zones{}, nil
	}
	return Zones{RBM: str(rows[0], "zona_rbm"), BM: str(rows[0], "zona_bm")}, nil
}
