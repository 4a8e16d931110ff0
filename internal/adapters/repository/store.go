// Package repository holds the live analytical snapshot set.
//
// A State groups every snapshot of one refresh. It is published wholesale
// through a single atomic pointer so readers observe either the previous
// set or the next one, never a mixture.
package repository

import (
	"sync/atomic"
	"time"

	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/pkg/metrics"
)

// LeaderboardDataset is the metrics label of the leaderboard snapshot.
const LeaderboardDataset = "leaderboard"

// State is one immutable snapshot set.
type State struct {
	Leaderboard  *model.Snapshot
	Competitions map[model.CompetitionKey]*model.Snapshot
	Metadata     model.CutoffMetadata
	PublishedAt  time.Time
}

// Competition returns the snapshot for key, or nil when the state has none.
func (st *State) Competition(key model.CompetitionKey) *model.Snapshot {
	if st == nil {
		return nil
	}
	return st.Competitions[key]
}

// Cutoff is the leaderboard cutoff marker, empty before the first publish.
func (st *State) Cutoff() string {
	if st == nil {
		return ""
	}
	return st.Leaderboard.Cutoff()
}

// CompetitionCounts maps "competition/level" to its row count.
func (st *State) CompetitionCounts() map[string]int {
	out := make(map[string]int)
	if st == nil {
		return out
	}
	for k, snap := range st.Competitions {
		out[k.String()] = snap.Len()
	}
	return out
}

// SnapshotStore publishes and serves snapshot sets.
type SnapshotStore struct {
	current atomic.Pointer[State]
	now     func() time.Time
}

// NewSnapshotStore constructs an empty store.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the live state, or nil if nothing was published yet.
// It is a single atomic read.
func (s *SnapshotStore) Load() *State {
	return s.current.Load()
}

// Publish replaces the live state in one swap. The state must not be
// modified afterwards.
func (s *SnapshotStore) Publish(st *State) error {
	if st == nil {
		return ErrNilState
	}
	if st.Leaderboard == nil {
		return ErrNoLeaderboard
	}
	st.PublishedAt = s.now()
	s.current.Store(st)

	metrics.RecordSnapshotPublish()
	metrics.UpdateSnapshotRows(LeaderboardDataset, st.Leaderboard.Len())
	for k, snap := range st.Competitions {
		metrics.UpdateSnapshotRows(k.String(), snap.Len())
	}
	return nil
}
