package service

import (
	"context"
	"fmt"

	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/internal/domain/visibility"
	"github.com/okian/salesboard/pkg/logger"
	"github.com/okian/salesboard/pkg/metrics"
)

// GetCompetitionRanks returns the rows of a competition level the identity
// may see, in warehouse rank order and capped at the competition limit.
// Unknown competitions or levels fail with model.ErrInvalidArgument.
func (s *Service) GetCompetitionRanks(ctx context.Context, key model.CompetitionKey, id model.Identity, override model.Override) ([]model.Row, error) {
	table, err := s.registry.Table(key)
	if err != nil {
		return nil, err
	}

	s.MaybeRefresh()
	pred := visibility.ForCompetition(key.Level, id, override)

	snap := s.store.Load().Competition(key)
	if !snap.Empty() {
		metrics.RecordCacheRead("competition", "warm")
		return model.Filter(snap.Rows(), pred, s.competitionLimit), nil
	}

	metrics.RecordCacheRead("competition", "cold")
	metrics.RecordColdFallback("competition")
	q := model.CompetitionQuery{Key: key, Table: table, Predicate: pred, Limit: s.competitionLimit}
	v, err, _ := s.cold.Do(q.CoalesceKey(), func() (any, error) {
		return s.source.FetchCompetitionRanks(ctx, q)
	})
	if err != nil {
		s.logger.Warn(ctx, "cold competition read failed",
			logger.String("competition", key.String()),
			logger.Error(err),
		)
		return nil, fmt.Errorf("cold competition read: %w", err)
	}
	rows, _ := v.([]model.Row)
	if len(rows) > s.competitionLimit {
		rows = rows[:s.competitionLimit]
	}
	if rows == nil {
		rows = []model.Row{}
	}
	return rows, nil
}
