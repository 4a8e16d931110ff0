package model

import "strings"

// LeaderboardQuery selects leaderboard rows. Region AllRegions (or empty)
// means every region; empty Division means every division; Limit <= 0 means
// no limit.
type LeaderboardQuery struct {
	Region   string
	Division string
	Limit    int
}

// AllRegionsSelected reports whether the query spans every region.
func (q LeaderboardQuery) AllRegionsSelected() bool {
	return q.Region == "" || q.Region == AllRegions
}

// Key is a stable identity for coalescing identical cold reads.
func (q LeaderboardQuery) Key() string {
	region := q.Region
	if q.AllRegionsSelected() {
		region = AllRegions
	}
	return "leaderboard|" + region + "|" + q.Division
}

// Clause is one any-of match: at least one of Fields must equal one of Values.
type Clause struct {
	Fields []string
	Values []string
}

func (c Clause) matches(row Row) bool {
	for _, f := range c.Fields {
		v, ok := row.Str(f)
		if !ok {
			continue
		}
		for _, want := range c.Values {
			if v == want {
				return true
			}
		}
	}
	return false
}

// Predicate is a conjunction of clauses. The zero value matches every row.
type Predicate struct {
	Clauses []Clause
}

// Unrestricted reports whether the predicate matches everything.
func (p Predicate) Unrestricted() bool { return len(p.Clauses) == 0 }

// Matches reports whether row satisfies every clause. A clause whose field is
// absent or nil in the row does not match.
func (p Predicate) Matches(row Row) bool {
	for _, c := range p.Clauses {
		if !c.matches(row) {
			return false
		}
	}
	return true
}

// And returns a predicate requiring p and field matching one of values.
func (p Predicate) And(field string, values ...string) Predicate {
	return p.AndAny([]string{field}, values...)
}

// AndAny returns a predicate requiring p and any of fields matching one of values.
func (p Predicate) AndAny(fields []string, values ...string) Predicate {
	clauses := make([]Clause, 0, len(p.Clauses)+1)
	clauses = append(clauses, p.Clauses...)
	clauses = append(clauses, Clause{Fields: fields, Values: values})
	return Predicate{Clauses: clauses}
}

// String renders the predicate for logs and coalescing keys.
func (p Predicate) String() string {
	if p.Unrestricted() {
		return "*"
	}
	var b strings.Builder
	for i, c := range p.Clauses {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(strings.Join(c.Fields, "|"))
		b.WriteByte('=')
		b.WriteString(strings.Join(c.Values, ","))
	}
	return b.String()
}

// Filter returns the rows matching p, preserving order, truncated to limit
// when limit > 0. The result never aliases the input slice.
func Filter(rows []Row, p Predicate, limit int) []Row {
	out := make([]Row, 0, min(len(rows), capHint(limit)))
	for _, r := range rows {
		if limit > 0 && len(out) >= limit {
			break
		}
		if p.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

func capHint(limit int) int {
	if limit <= 0 {
		return 64
	}
	return limit
}

// CompetitionQuery asks the warehouse for one competition table filtered by
// a visibility predicate.
type CompetitionQuery struct {
	Key       CompetitionKey
	Table     string
	Predicate Predicate
	Limit     int
}

// CoalesceKey is a stable identity for coalescing identical cold reads.
func (q CompetitionQuery) CoalesceKey() string {
	return "competition|" + q.Key.String() + "|" + q.Predicate.String()
}
