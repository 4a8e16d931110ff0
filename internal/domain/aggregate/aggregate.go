// Package aggregate derives dashboard summaries from leaderboard rows.
//
// All functions are pure: they read rows and never retain or modify them.
package aggregate

import (
	"math"
	"sort"
	"strconv"

	model "github.com/okian/salesboard/internal/domain/model"
)

// KPI is the headline summary of a region.
type KPI struct {
	TotalRevenue    float64 `json:"total_revenue"`
	TotalTarget     float64 `json:"total_target"`
	AchievementRate float64 `json:"achievement_rate"`
	GrowthRate      float64 `json:"growth_rate"`
	Forecast        float64 `json:"forecast"`
	TotalSalesman   int     `json:"total_salesman"`
	AvgCustomerBase float64 `json:"avg_customer_base"`
	AvgROA          float64 `json:"avg_roa"`
}

// Period is one revenue period of the sales trend.
type Period struct {
	Period        string  `json:"period"`
	TotalSales    float64 `json:"total_sales"`
	AvgROA        float64 `json:"avg_roa"`
	SalesmanCount int     `json:"salesman_count"`
}

// RegionSummary compares one region against the others.
type RegionSummary struct {
	Region          string  `json:"region"`
	TotalSalesman   int     `json:"total_salesman"`
	TotalRevenue    float64 `json:"total_revenue"`
	TotalTarget     float64 `json:"total_target"`
	AchievementRate float64 `json:"achievement_rate"`
	AvgScore        float64 `json:"avg_score"`
	AvgROA          float64 `json:"avg_roa"`
}

// Performer is one entry of the top performers list.
type Performer struct {
	Rank            int     `json:"rank"`
	Name            string  `json:"name"`
	Division        string  `json:"division"`
	Region          string  `json:"region"`
	Sales           float64 `json:"sales"`
	AchievementRate float64 `json:"achievement_rate"`
	Score           float64 `json:"score"`
}

// Champion is the best salesman of one region and division.
type Champion struct {
	Region       string   `json:"region"`
	Division     string   `json:"division"`
	NIK          any      `json:"nik"`
	SalesmanName any      `json:"salesman_name"`
	TotalScore   *float64 `json:"total_score"`
	SalesmanCode any      `json:"salesman_code"`
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Ratio returns num/den×100 rounded to two decimals, or 0 when den is 0.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return Round2(num / den * 100)
}

// mean averages only the values present, like SQL AVG.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64, ok bool) {
	if ok {
		m.sum += v
		m.n++
	}
}

func (m mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return Round2(m.sum / float64(m.n))
}

func sum(rows []model.Row, get func(model.Row) (float64, bool)) float64 {
	var total float64
	for _, r := range rows {
		if v, ok := get(r); ok {
			total += v
		}
	}
	return total
}

func omset(p int) func(model.Row) (float64, bool) {
	return func(r model.Row) (float64, bool) { return r.Omset(p) }
}

// KPIs summarises rows. An empty input yields the zero record.
func KPIs(rows []model.Row) KPI {
	if len(rows) == 0 {
		return KPI{}
	}
	revenue := sum(rows, omset(model.Periods))
	previous := sum(rows, omset(model.Periods-1))
	target := sum(rows, model.Row.Target)
	growth := Ratio(revenue-previous, previous)

	var cb, roa mean
	for _, r := range rows {
		cb.add(r.Float(model.FieldTotalCustomer))
		roa.add(r.ROA(model.Periods))
	}

	return KPI{
		TotalRevenue:    revenue,
		TotalTarget:     target,
		AchievementRate: Ratio(revenue, target),
		GrowthRate:      growth,
		Forecast:        Round2(revenue * (1 + growth/100)),
		TotalSalesman:   len(rows),
		AvgCustomerBase: cb.value(),
		AvgROA:          roa.value(),
	}
}

// SalesTrend returns one record per period in period order.
func SalesTrend(rows []model.Row) []Period {
	out := make([]Period, 0, model.Periods)
	for p := 1; p <= model.Periods; p++ {
		var roa mean
		for _, r := range rows {
			roa.add(r.ROA(p))
		}
		out = append(out, Period{
			Period:        "Period " + strconv.Itoa(p),
			TotalSales:    sum(rows, omset(p)),
			AvgROA:        roa.value(),
			SalesmanCount: len(rows),
		})
	}
	return out
}

// RegionComparison groups rows by region, ordered by revenue descending.
// Rows without a region are skipped.
func RegionComparison(rows []model.Row) []RegionSummary {
	type acc struct {
		rows            int
		revenue, target float64
		score, roa      mean
	}
	groups := make(map[string]*acc)
	for _, r := range rows {
		region := r.Region()
		if region == "" {
			continue
		}
		g, ok := groups[region]
		if !ok {
			g = &acc{}
			groups[region] = g
		}
		g.rows++
		if v, ok := r.Omset(model.Periods); ok {
			g.revenue += v
		}
		if v, ok := r.Target(); ok {
			g.target += v
		}
		g.score.add(r.TotalScore())
		g.roa.add(r.ROA(model.Periods))
	}

	out := make([]RegionSummary, 0, len(groups))
	for region, g := range groups {
		out = append(out, RegionSummary{
			Region:          region,
			TotalSalesman:   g.rows,
			TotalRevenue:    g.revenue,
			TotalTarget:     g.target,
			AchievementRate: Ratio(g.revenue, g.target),
			AvgScore:        g.score.value(),
			AvgROA:          g.roa.value(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalRevenue != out[j].TotalRevenue {
			return out[i].TotalRevenue > out[j].TotalRevenue
		}
		return out[i].Region < out[j].Region
	})
	return out
}

// TopPerformers maps the first rows (already in warehouse rank order) to
// performer records.
func TopPerformers(rows []model.Row, limit int) []Performer {
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]Performer, 0, len(rows))
	for _, r := range rows {
		rank, _ := r.Int(model.FieldRankRegional)
		name, _ := r.Str(model.FieldSalesmanName)
		sales, _ := r.Omset(model.Periods)
		ach, _ := r.Float(model.FieldAchievement)
		score, _ := r.TotalScore()
		out = append(out, Performer{
			Rank:            rank,
			Name:            name,
			Division:        r.Division(),
			Region:          r.Region(),
			Sales:           sales,
			AchievementRate: ach,
			Score:           score,
		})
	}
	return out
}

// TopSummary returns the highest scoring row per region and division,
// ordered by region then by the given division order. Ties keep the first
// row in warehouse order.
func TopSummary(rows []model.Row, divisions []string) []Champion {
	type key struct{ region, division string }
	best := make(map[key]model.Row)
	wanted := make(map[string]struct{}, len(divisions))
	for _, d := range divisions {
		wanted[d] = struct{}{}
	}
	for _, r := range rows {
		region, division := r.Region(), r.Division()
		if region == "" {
			continue
		}
		if _, ok := wanted[division]; !ok {
			continue
		}
		k := key{region, division}
		cur, ok := best[k]
		if !ok || scoreOrZero(r) > scoreOrZero(cur) {
			best[k] = r
		}
	}

	var out []Champion
	for _, region := range Regions(rows) {
		for _, division := range divisions {
			r, ok := best[key{region, division}]
			if !ok {
				continue
			}
			c := Champion{
				Region:       region,
				Division:     division,
				NIK:          r[model.FieldNIK],
				SalesmanName: r[model.FieldSalesmanName],
				SalesmanCode: r[model.FieldSalesmanCode],
			}
			if s, ok := r.TotalScore(); ok {
				c.TotalScore = &s
			}
			out = append(out, c)
		}
	}
	if out == nil {
		out = []Champion{}
	}
	return out
}

func scoreOrZero(r model.Row) float64 {
	s, _ := r.TotalScore()
	return s
}

// Regions returns the distinct non-empty regions, sorted.
func Regions(rows []model.Row) []string {
	return distinct(rows, model.Row.Region)
}

// Divisions returns the distinct non-empty divisions, sorted.
func Divisions(rows []model.Row) []string {
	return distinct(rows, model.Row.Division)
}

func distinct(rows []model.Row, get func(model.Row) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range rows {
		v := get(r)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
