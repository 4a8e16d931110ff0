package config

import "errors"

// Sentinel error kinds. Load wraps file and decode failures with
// ErrLoadConfig and Validate wraps rejected settings with ErrInvalidConfig.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
