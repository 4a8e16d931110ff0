package service

import (
	"github.com/okian/salesboard/internal/domain/aggregate"
	model "github.com/okian/salesboard/internal/domain/model"
)

// GetCacheInfo reports the live snapshot together with the bookkeeping of
// the refresh that published it.
func (s *Service) GetCacheInfo() model.CacheInfo {
	s.mu.Lock()
	st := s.store.Load()
	lastRefresh := s.lastRefreshAt
	lastErr := s.lastError
	s.mu.Unlock()

	info := model.CacheInfo{
		AvailableRegions: []string{},
		Competitions:     st.CompetitionCounts(),
	}
	if st != nil {
		rows := st.Leaderboard.Rows()
		info.TotalRecords = len(rows)
		info.CutoffDate = st.Cutoff()
		info.AvailableRegions = aggregate.Regions(rows)
		info.RegionsCount = len(info.AvailableRegions)
	}
	if !lastRefresh.IsZero() {
		info.LastRefresh = &lastRefresh
	}
	if lastErr != nil {
		msg := lastErr.Error()
		info.LastError = &msg
		info.Stale = true
	}
	return info
}
