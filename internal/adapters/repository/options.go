package repository

import "time"

// Option applies a configuration option to the SnapshotStore.
type Option func(*SnapshotStore)

// WithInitialState seeds the store with a published state.
func WithInitialState(st *State) Option {
	return func(s *SnapshotStore) {
		if st != nil && st.Leaderboard != nil {
			s.current.Store(st)
		}
	}
}

// WithClock overrides the clock used for publish timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *SnapshotStore) {
		if now != nil {
			s.now = now
		}
	}
}
