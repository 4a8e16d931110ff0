package model

import "time"

// Snapshot is one immutable, fully loaded copy of a dataset.
// A snapshot is replaced wholesale and never modified after creation.
type Snapshot struct {
	rows       []Row
	cutoff     string
	capturedAt time.Time
}

// NewSnapshot captures rows under the given cutoff marker. The slice is owned
// by the snapshot from this point on.
func NewSnapshot(rows []Row, cutoff string, capturedAt time.Time) *Snapshot {
	return &Snapshot{rows: rows, cutoff: cutoff, capturedAt: capturedAt}
}

// Rows returns the snapshot rows in warehouse order. Callers must not modify
// the returned slice or its rows.
func (s *Snapshot) Rows() []Row {
	if s == nil {
		return nil
	}
	return s.rows
}

// Len is the number of rows; zero for a nil snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rows)
}

// Empty reports whether there is nothing to serve from this snapshot.
func (s *Snapshot) Empty() bool { return s.Len() == 0 }

// Cutoff is the freshness marker the rows were loaded under.
func (s *Snapshot) Cutoff() string {
	if s == nil {
		return ""
	}
	return s.cutoff
}

// CapturedAt is when the snapshot was built.
func (s *Snapshot) CapturedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.capturedAt
}

// CutoffMetadata describes the warehouse cut_off row.
type CutoffMetadata struct {
	TglUpdate *string  `json:"tgl_update"`
	Ideal     *float64 `json:"ideal"`
}

// CacheInfo is the diagnostic view of the analytical cache.
type CacheInfo struct {
	TotalRecords     int            `json:"total_records"`
	CutoffDate       string         `json:"cutoff_date,omitempty"`
	LastRefresh      *time.Time     `json:"last_refresh"`
	LastError        *string        `json:"last_error"`
	Stale            bool           `json:"stale"`
	RegionsCount     int            `json:"regions_count"`
	AvailableRegions []string       `json:"available_regions"`
	Competitions     map[string]int `json:"competitions"`
}
