package scheduler

import "errors"

// ErrInvalidSpec is returned by Add for an unparsable schedule.
var ErrInvalidSpec = errors.New("invalid schedule")
