// Package visibility decides which warehouse rows a requester may see.
//
// Every rule produces a model.Predicate. The analytical cache matches it
// against snapshot rows and the warehouse adapters render the same value to
// a WHERE clause, so warm and cold reads agree.
package visibility

import (
	model "github.com/okian/salesboard/internal/domain/model"
)

// zoneManagerRole scopes ASS-level views to the manager's own zone or branch.
const zoneManagerRole = "bm"

// ZoneField is the zone column an explicit zone filter applies to at level.
func ZoneField(level model.Level) string {
	if level == model.LevelRBM {
		return model.FieldZonaRBM
	}
	return model.FieldZonaBM
}

// ForCompetition returns the row predicate for a competition view at level.
// Rules are evaluated in order and the first applicable one wins.
func ForCompetition(level model.Level, id model.Identity, override model.Override) model.Predicate {
	if id.IsAdmin() {
		return explicit(level, override)
	}

	region, regionKnown := id.KnownRegion()
	var p model.Predicate

	switch level {
	case model.LevelRBM:
		switch {
		case id.ZonaRBM != "":
			return p.And(model.FieldZonaRBM, id.ZonaRBM)
		case regionKnown:
			return p.And(model.FieldRegion, region)
		}
	case model.LevelBM:
		switch {
		case id.ZonaBM != "":
			return p.And(model.FieldZonaBM, id.ZonaBM)
		case id.ZonaRBM != "":
			return p.And(model.FieldZonaRBM, id.ZonaRBM)
		case regionKnown:
			return p.And(model.FieldRegion, region)
		}
	case model.LevelASS:
		switch {
		case id.HasRole(zoneManagerRole) && id.ScopeID != "":
			return p.AndAny([]string{model.FieldZonaBM, model.FieldCabang}, id.ScopeID)
		case regionKnown:
			return p.And(model.FieldRegion, region)
		}
	}
	return p
}

// explicit applies only what an administrator asked for. Region and zone
// both narrow when both are given.
func explicit(level model.Level, o model.Override) model.Predicate {
	var p model.Predicate
	if o.Region != "" && o.Region != model.AllRegions {
		p = p.And(model.FieldRegion, o.Region)
	}
	if o.Zone != "" {
		p = p.And(ZoneField(level), o.Zone)
	}
	return p
}

// ForLeaderboard is the region and division filter of the leaderboard and
// every aggregate derived from it.
func ForLeaderboard(q model.LeaderboardQuery) model.Predicate {
	var p model.Predicate
	if !q.AllRegionsSelected() {
		p = p.And(model.FieldRegion, q.Region)
	}
	if q.Division != "" {
		p = p.And(model.FieldDivision, q.Division)
	}
	return p
}

// EffectiveRegion pins non-national identities to their own region. Only an
// identity with region ALL may pick another region through requested.
func EffectiveRegion(id model.Identity, requested string) string {
	if id.IsNational() {
		if requested == "" {
			return model.AllRegions
		}
		return requested
	}
	if id.Region == "" {
		return model.AllRegions
	}
	return id.Region
}
