package warehouse

import (
	"time"

	"github.com/okian/salesboard/pkg/logger"
)

// Defaults applied by New.
const (
	DefaultQueryTimeout   = 30 * time.Second
	DefaultMaxFailures    = 5
	DefaultBreakerOpenFor = 30 * time.Second

	DefaultLeaderboardTable = "leaderboard"
	DefaultCutoffTable      = "cut_off"
	DefaultZoneTable        = "rank_ass"
)

// Tables names the warehouse tables read by the adapter.
type Tables struct {
	Leaderboard string
	Cutoff      string
	Zones       string
}

// Option configures a Warehouse.
type Option func(*Warehouse)

// WithQueryTimeout bounds every warehouse round trip.
func WithQueryTimeout(d time.Duration) Option {
	return func(w *Warehouse) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithBreaker sets how many consecutive failures open the circuit and how
// long it stays open before a trial request.
func WithBreaker(maxFailures int, openFor time.Duration) Option {
	return func(w *Warehouse) {
		if maxFailures > 0 {
			w.maxFailures = uint32(maxFailures) //nolint:gosec // bounded by config validation
		}
		if openFor > 0 {
			w.openFor = openFor
		}
	}
}

// WithTables overrides table names. Empty fields keep their default.
func WithTables(t Tables) Option {
	return func(w *Warehouse) {
		if t.Leaderboard != "" {
			w.tables.Leaderboard = t.Leaderboard
		}
		if t.Cutoff != "" {
			w.tables.Cutoff = t.Cutoff
		}
		if t.Zones != "" {
			w.tables.Zones = t.Zones
		}
	}
}

// WithLogger sets the adapter logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Warehouse) {
		if l != nil {
			w.logger = l
		}
	}
}
