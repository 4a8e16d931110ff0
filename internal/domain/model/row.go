// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Field names the core reads from warehouse rows.
const (
	FieldRegion        = "region"
	FieldDivision      = "division"
	FieldZonaRBM       = "zona_rbm"
	FieldZonaBM        = "zona_bm"
	FieldCabang        = "cabang"
	FieldRank          = "rank"
	FieldRankRegional  = "rank_regional"
	FieldTotalScore    = "total_score"
	FieldTarget        = "target"
	FieldTotalCustomer = "total_customer"
	FieldAchievement   = "achievement_rate"
	FieldSalesmanName  = "salesman_name"
	FieldSalesmanCode  = "salesman_code"
	FieldNIK           = "nik"
)

// Periods is the number of revenue periods (omset_p1..omset_p4) a leaderboard row carries.
const Periods = 4

// OmsetField returns the revenue field for period p (1-based).
func OmsetField(p int) string { return "omset_p" + strconv.Itoa(p) }

// ROAField returns the ROA field for period p (1-based).
func ROAField(p int) string { return "roa_p" + strconv.Itoa(p) }

// Row is one warehouse record: field name to scalar (string, number or nil).
// Rows placed in a snapshot are shared between readers and must not be modified.
type Row map[string]any

// Str returns the string value of key. ok is false when the field is absent,
// nil, or not a string.
func (r Row) Str(key string) (string, bool) {
	v, present := r[key]
	if !present || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Float returns the numeric value of key. Numeric strings are accepted since
// some drivers report decimals as text. ok is false for absent, nil or
// non-numeric values.
func (r Row) Float(key string) (float64, bool) {
	v, present := r[key]
	if !present || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Int returns the integer value of key, truncating fractional numbers.
func (r Row) Int(key string) (int, bool) {
	f, ok := r.Float(key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Region is the row's organizational region, empty when absent.
func (r Row) Region() string {
	s, _ := r.Str(FieldRegion)
	return s
}

// Division is the row's sales division, empty when absent.
func (r Row) Division() string {
	s, _ := r.Str(FieldDivision)
	return s
}

// ZonaRBM is the row's RBM competition zone.
func (r Row) ZonaRBM() (string, bool) { return r.Str(FieldZonaRBM) }

// ZonaBM is the row's BM competition zone.
func (r Row) ZonaBM() (string, bool) { return r.Str(FieldZonaBM) }

// Rank is the warehouse-assigned rank. The core never recomputes it.
func (r Row) Rank() (int, bool) { return r.Int(FieldRank) }

// TotalScore is the final competition score.
func (r Row) TotalScore() (float64, bool) { return r.Float(FieldTotalScore) }

// Target is the revenue target.
func (r Row) Target() (float64, bool) { return r.Float(FieldTarget) }

// Omset is the revenue for period p (1-based).
func (r Row) Omset(p int) (float64, bool) { return r.Float(OmsetField(p)) }

// ROA is the ROA metric for period p (1-based).
func (r Row) ROA(p int) (float64, bool) { return r.Float(ROAField(p)) }

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
