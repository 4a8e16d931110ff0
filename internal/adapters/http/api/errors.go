package api

import (
	"errors"
	"fmt"
	"net/http"

	model "github.com/okian/salesboard/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = fmt.Errorf("bad request: %w", model.ErrInvalidArgument)
	ErrAdminOnly  = fmt.Errorf("administrative role required: %w", model.ErrForbidden)
	ErrNational   = fmt.Errorf("only national users can compare regions: %w", model.ErrForbidden)
)

// statusFor maps an error kind to an HTTP status and response code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrInvalidArgument):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, model.ErrDataSource):
		return http.StatusServiceUnavailable, "data_source_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
