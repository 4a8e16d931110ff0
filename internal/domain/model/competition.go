package model

import (
	"fmt"
	"sort"
	"strings"
)

// Level is an organizational tier of the competition hierarchy.
type Level string

// Competition levels, from most granular to broadest.
const (
	LevelASS Level = "ass"
	LevelBM  Level = "bm"
	LevelRBM Level = "rbm"
)

// Levels lists every known level.
var Levels = []Level{LevelASS, LevelBM, LevelRBM}

// ParseLevel normalises s and rejects unknown levels with ErrInvalidArgument.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	switch l {
	case LevelASS, LevelBM, LevelRBM:
		return l, nil
	default:
		return "", fmt.Errorf("invalid level %q: %w", s, ErrInvalidArgument)
	}
}

// CompetitionKey addresses one per-competition snapshot.
type CompetitionKey struct {
	CompetitionID string
	Level         Level
}

func (k CompetitionKey) String() string {
	return k.CompetitionID + "/" + string(k.Level)
}

// Competition is a registered competition and the warehouse table of each level.
type Competition struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Period      string           `json:"period"`
	Description string           `json:"description,omitempty"`
	Tables      map[Level]string `json:"-"`
}

// Registry resolves competitions by id.
type Registry struct {
	byID map[string]Competition
	ids  []string
}

// NewRegistry indexes competitions. Ids are listed in sorted order.
func NewRegistry(competitions ...Competition) *Registry {
	r := &Registry{byID: make(map[string]Competition, len(competitions))}
	for _, c := range competitions {
		if _, dup := r.byID[c.ID]; !dup {
			r.ids = append(r.ids, c.ID)
		}
		r.byID[c.ID] = c
	}
	sort.Strings(r.ids)
	return r
}

// Table returns the warehouse table for key, or ErrInvalidArgument when the
// competition or level is unknown.
func (r *Registry) Table(key CompetitionKey) (string, error) {
	c, ok := r.byID[key.CompetitionID]
	if !ok {
		return "", fmt.Errorf("invalid competition id %q: %w", key.CompetitionID, ErrInvalidArgument)
	}
	table, ok := c.Tables[key.Level]
	if !ok || table == "" {
		return "", fmt.Errorf("invalid level %q for competition %q: %w", key.Level, key.CompetitionID, ErrInvalidArgument)
	}
	return table, nil
}

// List returns all competitions ordered by id.
func (r *Registry) List() []Competition {
	out := make([]Competition, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.byID[id])
	}
	return out
}

// Keys returns every (competition, level) pair that has a table.
func (r *Registry) Keys() []CompetitionKey {
	var keys []CompetitionKey
	for _, id := range r.ids {
		c := r.byID[id]
		for _, l := range Levels {
			if c.Tables[l] != "" {
				keys = append(keys, CompetitionKey{CompetitionID: id, Level: l})
			}
		}
	}
	return keys
}
