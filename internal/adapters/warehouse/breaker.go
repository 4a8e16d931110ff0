package warehouse

import (
	"context"
	"errors"
	"time"

	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/pkg/logger"
	"github.com/okian/salesboard/pkg/metrics"
	"github.com/sony/gobreaker/v2"
)

// newBreaker trips after maxFailures consecutive warehouse failures and
// admits one trial request after openFor. Caller cancellations do not count.
func newBreaker(name string, maxFailures uint32, openFor time.Duration, log logger.Logger) *gobreaker.CircuitBreaker[[]model.Row] {
	metrics.UpdateBreakerState(name, int(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker[[]model.Row](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(name, int(to))
			log.Warn(context.Background(), "breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})
}

// rejected reports whether err came from the breaker rather than the warehouse.
func rejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
