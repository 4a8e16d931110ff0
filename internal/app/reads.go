package service

import (
	"context"
	"fmt"

	"github.com/okian/salesboard/internal/domain/aggregate"
	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/internal/domain/visibility"
	"github.com/okian/salesboard/pkg/logger"
	"github.com/okian/salesboard/pkg/metrics"
)

// GetLeaderboard returns leaderboard rows of q.Region (or every region) and
// q.Division (or every division) in warehouse order, truncated to q.Limit.
// A cold cache falls back to the warehouse with the same filters.
func (s *Service) GetLeaderboard(ctx context.Context, q model.LeaderboardQuery) ([]model.Row, error) {
	return s.leaderboardRows(ctx, "leaderboard", q)
}

func (s *Service) leaderboardRows(ctx context.Context, op string, q model.LeaderboardQuery) ([]model.Row, error) {
	s.MaybeRefresh()

	st := s.store.Load()
	if st == nil || st.Leaderboard.Empty() {
		metrics.RecordCacheRead(op, "cold")
		return s.coldLeaderboard(ctx, op, q)
	}
	metrics.RecordCacheRead(op, "warm")
	return model.Filter(st.Leaderboard.Rows(), visibility.ForLeaderboard(q), q.Limit), nil
}

func (s *Service) coldLeaderboard(ctx context.Context, op string, q model.LeaderboardQuery) ([]model.Row, error) {
	metrics.RecordColdFallback(op)
	key := fmt.Sprintf("%s|%d", q.Key(), q.Limit)
	v, err, shared := s.cold.Do(key, func() (any, error) {
		return s.source.FetchLeaderboard(ctx, q)
	})
	if err != nil {
		s.logger.Warn(ctx, "cold leaderboard read failed", logger.String("operation", op), logger.Error(err))
		return nil, fmt.Errorf("cold %s read: %w", op, err)
	}
	rows, _ := v.([]model.Row)
	if rows == nil {
		rows = []model.Row{}
	}
	s.logger.Debug(ctx, "served cold leaderboard read",
		logger.String("operation", op),
		logger.Int("rows", len(rows)),
		logger.Bool("shared", shared),
	)
	return rows, nil
}

func (s *Service) regionRows(ctx context.Context, op, region string) ([]model.Row, error) {
	return s.leaderboardRows(ctx, op, model.LeaderboardQuery{Region: region})
}

// GetKPIs summarises the rows of region. An empty region yields a zeroed record.
func (s *Service) GetKPIs(ctx context.Context, region string) (aggregate.KPI, error) {
	rows, err := s.regionRows(ctx, "kpis", region)
	if err != nil {
		return aggregate.KPI{}, err
	}
	return aggregate.KPIs(rows), nil
}

// GetSalesTrend returns the per-period revenue of region.
func (s *Service) GetSalesTrend(ctx context.Context, region string) ([]aggregate.Period, error) {
	rows, err := s.regionRows(ctx, "sales_trend", region)
	if err != nil {
		return nil, err
	}
	return aggregate.SalesTrend(rows), nil
}

// GetRegionComparison compares every region, ordered by revenue.
func (s *Service) GetRegionComparison(ctx context.Context) ([]aggregate.RegionSummary, error) {
	rows, err := s.regionRows(ctx, "region_comparison", model.AllRegions)
	if err != nil {
		return nil, err
	}
	return aggregate.RegionComparison(rows), nil
}

// GetTopPerformers returns the first limit salesmen of region in rank order.
func (s *Service) GetTopPerformers(ctx context.Context, region string, limit int) ([]aggregate.Performer, error) {
	rows, err := s.leaderboardRows(ctx, "top_performers", model.LeaderboardQuery{Region: region, Limit: limit})
	if err != nil {
		return nil, err
	}
	return aggregate.TopPerformers(rows, limit), nil
}

// GetTopSummary returns the best salesman per region and summary division.
func (s *Service) GetTopSummary(ctx context.Context, region string) ([]aggregate.Champion, error) {
	rows, err := s.regionRows(ctx, "top_summary", region)
	if err != nil {
		return nil, err
	}
	return aggregate.TopSummary(rows, s.summaryDivisions), nil
}

// GetRegions lists the distinct regions of the leaderboard.
func (s *Service) GetRegions(ctx context.Context) ([]string, error) {
	rows, err := s.regionRows(ctx, "regions", model.AllRegions)
	if err != nil {
		return nil, err
	}
	return aggregate.Regions(rows), nil
}

// GetDivisions lists the distinct divisions of region.
func (s *Service) GetDivisions(ctx context.Context, region string) ([]string, error) {
	rows, err := s.regionRows(ctx, "divisions", region)
	if err != nil {
		return nil, err
	}
	return aggregate.Divisions(rows), nil
}

// GetCutoff returns the cutoff metadata captured with the live snapshot,
// or asks the warehouse when the cache is cold.
func (s *Service) GetCutoff(ctx context.Context) (model.CutoffMetadata, error) {
	if st := s.store.Load(); st != nil {
		return st.Metadata, nil
	}
	metrics.RecordColdFallback("cutoff")
	v, err, _ := s.cold.Do("cutoff", func() (any, error) {
		return s.source.FetchCutoffMetadata(ctx)
	})
	if err != nil {
		return model.CutoffMetadata{}, fmt.Errorf("cold cutoff read: %w", err)
	}
	meta, _ := v.(model.CutoffMetadata)
	return meta, nil
}
