package repository

import "errors"

// Sentinel kinds for snapshot store errors.
var (
	ErrNilState      = errors.New("snapshot state is nil")
	ErrNoLeaderboard = errors.New("snapshot state has no leaderboard")
)
