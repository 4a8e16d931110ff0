package warehouse

import (
	"strings"

	model "github.com/okian/salesboard/internal/domain/model"
)

// unrankedPosition is reported when a competition row carries no rank.
const unrankedPosition = 999

// nameColumns lists, per level, the columns tried in order for the display name.
var nameColumns = map[model.Level][]string{
	model.LevelASS: {"nama_ass", "zona_bm", "zona_rbm", "cabang"},
	model.LevelBM:  {"cabang", "zona_bm", "zona_rbm"},
	model.LevelRBM: {"zona_rbm", "zona_bm", "cabang"},
}

// normalizeCompetition maps a raw competition row (lower-cased warehouse
// columns) to the stable output shape. Filter fields keep their row names so
// in-memory predicates see the same values the warehouse filtered on.
func normalizeCompetition(level model.Level, raw model.Row) model.Row {
	return model.Row{
		model.FieldRank:    competitionRank(level, raw),
		"name":             competitionName(level, raw),
		model.FieldNIK:     str(raw, "nik_ass"),
		model.FieldCabang:  str(raw, "cabang"),
		model.FieldRegion:  str(raw, "region"),
		model.FieldZonaBM:  str(raw, "zona_bm"),
		model.FieldZonaRBM: str(raw, "zona_rbm"),
		"omset_ach":        num(raw, "ach_oms") * 100,
		"roa_ach":          num(raw, "ach_roa") * 100,
		"total_point":      whole(raw, "total_point"),
		"reward":           whole(raw, "reward"),
		model.FieldTarget:  num(raw, "target"),
		"omset":            num(raw, "omset"),
		"point_oms":        whole(raw, "point_oms"),
		"point_roa":        whole(raw, "point_roa"),
		"point_roa_10krt":  whole(raw, "point_roa_10krt"),
		"cb":               whole(raw, "cb"),
		"act_roa":          num(raw, "act_roa"),
		"total_roa_10krt":  whole(raw, "total_roa_10krt"),
	}
}

func competitionRank(level model.Level, raw model.Row) int {
	for _, col := range []string{strings.ToLower(rankColumn(level)), model.FieldRankRegional, "rank_zona"} {
		if r, ok := raw.Int(col); ok {
			return r
		}
	}
	return unrankedPosition
}

func competitionName(level model.Level, raw model.Row) string {
	for _, col := range nameColumns[level] {
		if s, ok := raw.Str(col); ok && s != "" {
			return s
		}
	}
	return "Unknown"
}

func str(raw model.Row, key string) string {
	s, _ := raw.Str(key)
	return s
}

func num(raw model.Row, key string) float64 {
	f, _ := raw.Float(key)
	return f
}

func whole(raw model.Row, key string) int {
	n, _ := raw.Int(key)
	return n
}
