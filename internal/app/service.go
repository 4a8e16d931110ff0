// Package service implements the in-memory analytical cache served by the
// HTTP API.
//
// The cache holds one snapshot of the leaderboard and one per competition
// level. Reads filter the live snapshot without locks. A background check
// compares the warehouse cutoff marker at most once per check interval and
// refreshes the whole set when it moved.
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	repository "github.com/okian/salesboard/internal/adapters/repository"
	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// Defaults of the refresh policy.
const (
	DefaultCheckInterval    = 15 * time.Minute
	DefaultRetryInterval    = time.Minute
	DefaultCompetitionLimit = 1000
)

// DefaultSummaryDivisions are the divisions of the top summary.
var DefaultSummaryDivisions = []string{"AEGDA", "AEPDA"}

// DataSource is the warehouse the cache loads from. Implementations apply
// their own timeouts and wrap failures with model.ErrDataSource.
type DataSource interface {
	FetchCutoffMarker(ctx context.Context) (string, error)
	FetchCutoffMetadata(ctx context.Context) (model.CutoffMetadata, error)
	FetchLeaderboard(ctx context.Context, q model.LeaderboardQuery) ([]model.Row, error)
	FetchCompetitionRanks(ctx context.Context, q model.CompetitionQuery) ([]model.Row, error)
}

// Service is the process-wide analytical cache.
type Service struct {
	source   DataSource
	store    *repository.SnapshotStore
	registry *model.Registry
	logger   logger.Logger
	now      func() time.Time

	checkInterval    time.Duration
	retryInterval    time.Duration
	competitionLimit int
	summaryDivisions []string

	// refreshMu serialises refreshes. Readers never take it.
	refreshMu sync.Mutex

	// mu guards the bookkeeping below.
	mu            sync.Mutex
	lastRefreshAt time.Time
	retryAt       time.Time
	lastError     error
	started       bool
	stopped       bool

	checking atomic.Bool
	wg       sync.WaitGroup
	cold     singleflight.Group

	baseCtx context.Context
	cancel  context.CancelFunc
}

// New constructs the cache. It never blocks and never contacts the
// warehouse; call Start to warm it up.
func New(source DataSource, opts ...Option) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		source:           source,
		store:            repository.NewSnapshotStore(),
		registry:         model.NewRegistry(),
		now:              time.Now,
		checkInterval:    DefaultCheckInterval,
		retryInterval:    DefaultRetryInterval,
		competitionLimit: DefaultCompetitionLimit,
		summaryDivisions: DefaultSummaryDivisions,
		baseCtx:          ctx,
		cancel:           cancel,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.Named("cache")

	return s
}

// Start runs the warm-up refresh in the background. The returned channel
// receives its result and is then closed; callers may ignore it.
func (s *Service) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	s.mu.Lock()
	switch {
	case s.stopped:
		s.mu.Unlock()
		done <- ErrStopped
		close(done)
		return done
	case s.started:
		s.mu.Unlock()
		done <- ErrAlreadyStarted
		close(done)
		return done
	}
	s.started = true
	s.checking.Store(true)
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info(ctx, "starting analytical cache warm-up",
		logger.Int("competitions", len(s.registry.Keys())),
		logger.Duration("check_interval", s.checkInterval),
	)

	go func() {
		defer s.wg.Done()
		defer close(done)
		err := s.Refresh(ctx)
		s.checking.Store(false)
		done <- err
	}()
	return done
}

// Stop cancels background checks and waits for them to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.logger.Info(context.Background(), "analytical cache stopped")
}

// Competitions lists the registered competitions.
func (s *Service) Competitions() []model.Competition {
	return s.registry.List()
}
