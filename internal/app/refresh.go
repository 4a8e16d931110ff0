package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	repository "github.com/okian/salesboard/internal/adapters/repository"
	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/pkg/logger"
	"github.com/okian/salesboard/pkg/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Refresh reloads every snapshot from the warehouse and publishes them in a
// single swap. Refreshes are mutually exclusive. On failure the live set is
// left untouched and the error is recorded.
func (s *Service) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	id := uuid.NewString()
	start := s.now()
	log := s.logger
	log.Info(ctx, "refreshing analytical snapshots", logger.String("refresh_id", id))

	st, err := s.load(ctx)
	if err == nil {
		err = s.publish(st)
	}
	took := s.now().Sub(start)

	if err != nil {
		s.recordFailure(err)
		metrics.RecordRefresh("failure", float64(took.Milliseconds()))
		metrics.RecordErrorByComponent("cache", "refresh_failed")
		log.Error(ctx, "snapshot refresh failed",
			logger.String("refresh_id", id),
			logger.Duration("took", took),
			logger.Error(err),
		)
		return err
	}

	metrics.RecordRefresh("success", float64(took.Milliseconds()))
	metrics.UpdateRefreshLastSuccess(float64(s.now().Unix()))
	log.Info(ctx, "snapshot refresh published",
		logger.String("refresh_id", id),
		logger.String("cutoff", st.Cutoff()),
		logger.Int("rows", st.Leaderboard.Len()),
		logger.Int("competitions", len(st.Competitions)),
		logger.Duration("took", took),
	)
	return nil
}

// load fetches a complete snapshot set without touching the live one.
func (s *Service) load(ctx context.Context) (*repository.State, error) {
	cutoff, err := s.source.FetchCutoffMarker(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch cutoff marker: %w", err)
	}
	captured := s.now()

	keys := s.registry.Keys()
	tables := make(map[model.CompetitionKey]string, len(keys))
	for _, key := range keys {
		table, err := s.registry.Table(key)
		if err != nil {
			return nil, err
		}
		tables[key] = table
	}

	var (
		leaderboard []model.Row
		meta        model.CutoffMetadata
		metaErr     error
		mu          sync.Mutex
		comps       = make(map[model.CompetitionKey]*model.Snapshot)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.source.FetchLeaderboard(gctx, model.LeaderboardQuery{Region: model.AllRegions})
		if err != nil {
			return fmt.Errorf("fetch leaderboard: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("%w: %w", ErrEmptyLeaderboard, model.ErrDataSource)
		}
		leaderboard = rows
		return nil
	})
	g.Go(func() error {
		meta, metaErr = s.source.FetchCutoffMetadata(gctx)
		return nil
	})
	for key, table := range tables {
		g.Go(func() error {
			rows, err := s.source.FetchCompetitionRanks(gctx, model.CompetitionQuery{Key: key, Table: table})
			if err != nil {
				return fmt.Errorf("fetch competition %s: %w", key, err)
			}
			mu.Lock()
			comps[key] = model.NewSnapshot(rows, cutoff, captured)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if metaErr != nil {
		// Metadata is informational; keep serving the previous one.
		s.logger.Warn(ctx, "cutoff metadata unavailable", logger.Error(metaErr))
		if prev := s.store.Load(); prev != nil {
			meta = prev.Metadata
		}
	}

	return &repository.State{
		Leaderboard:  model.NewSnapshot(leaderboard, cutoff, captured),
		Competitions: comps,
		Metadata:     meta,
	}, nil
}

// publish swaps st in and records the success in the same critical section
// that GetCacheInfo reads under.
func (s *Service) publish(st *repository.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Publish(st); err != nil {
		return err
	}
	s.lastRefreshAt = s.now()
	s.retryAt = time.Time{}
	s.lastError = nil
	return nil
}

func (s *Service) recordFailure(err error) {
	s.mu.Lock()
	s.lastError = err
	s.retryAt = s.now().Add(s.retryInterval)
	s.mu.Unlock()
}

// MaybeRefresh starts one background cutoff check when the check interval
// elapsed and no check is in flight. It never blocks.
func (s *Service) MaybeRefresh() {
	now := s.now()

	s.mu.Lock()
	due := s.lastRefreshAt.IsZero() || now.Sub(s.lastRefreshAt) >= s.checkInterval
	if s.stopped || !due || now.Before(s.retryAt) {
		s.mu.Unlock()
		return
	}
	if !s.checking.CompareAndSwap(false, true) {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.checking.Store(false)
		s.check(s.baseCtx)
	}()
}

// check compares the warehouse cutoff marker with the live one and
// refreshes on change. Failures are recorded, never returned.
func (s *Service) check(ctx context.Context) {
	live := s.store.Load()
	if live == nil {
		_ = s.Refresh(ctx)
		return
	}

	cutoff, err := s.source.FetchCutoffMarker(ctx)
	if err != nil {
		metrics.RecordCutoffCheck("error")
		s.recordFailure(fmt.Errorf("check cutoff marker: %w", err))
		s.logger.Warn(ctx, "cutoff check failed", logger.Error(err))
		return
	}

	if cutoff != live.Cutoff() {
		metrics.RecordCutoffCheck("changed")
		s.logger.Info(ctx, "cutoff marker changed",
			logger.String("previous", live.Cutoff()),
			logger.String("current", cutoff),
		)
		_ = s.Refresh(ctx)
		return
	}

	metrics.RecordCutoffCheck("unchanged")
	s.mu.Lock()
	s.lastRefreshAt = s.now()
	s.retryAt = time.Time{}
	s.lastError = nil
	s.mu.Unlock()
	s.logger.Debug(ctx, "cutoff marker unchanged", logger.String("cutoff", cutoff))
}

// ForceRefresh refreshes synchronously, bypassing the check interval.
func (s *Service) ForceRefresh(ctx context.Context) error {
	return s.Refresh(ctx)
}
