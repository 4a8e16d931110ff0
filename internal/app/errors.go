package service

import "errors"

// Sentinel kinds for analytical cache errors.
var (
	ErrEmptyLeaderboard = errors.New("warehouse returned an empty leaderboard")
	ErrAlreadyStarted   = errors.New("analytical cache already started")
	ErrStopped          = errors.New("analytical cache stopped")
)
