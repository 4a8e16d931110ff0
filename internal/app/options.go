package service

import (
	"time"

	repository "github.com/okian/salesboard/internal/adapters/repository"
	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRegistry sets the competitions refreshed and served by the cache.
func WithRegistry(r *model.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithStore replaces the snapshot store.
func WithStore(st *repository.SnapshotStore) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithCheckInterval sets how often the cutoff marker may be checked.
func WithCheckInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.checkInterval = d
		}
	}
}

// WithRetryInterval sets how long to wait after a failed check before the next one.
func WithRetryInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retryInterval = d
		}
	}
}

// WithCompetitionLimit caps the rows served per competition view.
func WithCompetitionLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.competitionLimit = n
		}
	}
}

// WithSummaryDivisions sets the divisions of the top summary, in display order.
func WithSummaryDivisions(divisions []string) Option {
	return func(s *Service) {
		if len(divisions) > 0 {
			s.summaryDivisions = append([]string(nil), divisions...)
		}
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
