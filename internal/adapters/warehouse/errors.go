package warehouse

import (
	"errors"
	"fmt"

	model "github.com/okian/salesboard/internal/domain/model"
)

var (
	// ErrUnknownDriver is returned by Open for an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown warehouse driver")
	// ErrInvalidIdentifier rejects a table or column name that is not a plain identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrUnknownColumn is returned when a predicate names a field without a physical column.
	ErrUnknownColumn = fmt.Errorf("unknown filter column: %w", model.ErrInvalidArgument)
	// ErrNoCutoff is returned when the cutoff table holds no marker.
	ErrNoCutoff = errors.New("cutoff marker is null")
)
