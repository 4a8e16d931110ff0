package warehouse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/internal/domain/visibility"
)

// Statement is one parameterised query.
type Statement struct {
	SQL  string
	Args []any
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*){0,2}$`)

func checkIdentifier(name string) error {
	if !identifier.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// leaderboardSelect maps warehouse columns to the stable row field names.
const leaderboardSelect = `region, kd_dist, area,
	kd_sls AS salesman_code, nm_sls AS salesman_name, div_sls AS division, nik,
	Omset_P1 AS omset_p1, Omset_P2 AS omset_p2, Omset_P3 AS omset_p3, Omset_P4 AS omset_p4,
	target_oms AS target,
	ROUND(Omset_P4 / NULLIF(target_oms, 0) * 100, 2) AS achievement_rate,
	pts_Omset_P1 AS pts_omset_p1, pts_Omset_P2 AS pts_omset_p2,
	pts_Omset_P3 AS pts_omset_p3, pts_Omset_P4 AS pts_omset_p4,
	ROA_P1 AS roa_p1, ROA_P2 AS roa_p2, ROA_P3 AS roa_p3, ROA_P4 AS roa_p4,
	pts_ROA_P1 AS pts_roa_p1, pts_ROA_P2 AS pts_roa_p2, pts_ROA_P3 AS pts_roa_p3,
	Total_CB AS total_customer, EC_Akumulasi AS effective_calls, Poin_EC AS pts_ec,
	roa_WFR_E02K, pts_roa_WFR_E02K, roa_NXT_E02K, pts_roa_NXT_E02K,
	roa_NXC_E02K, pts_roa_NXC_E02K, roa_WFR_E05K, pts_roa_WFR_E05K,
	roa_CSD_E02K, pts_roa_CSD_E02K, roa_ROL_E500, pts_roa_ROL_E500,
	roa_TBK_E01K, pts_roa_TBK_E01K, roa_ROL_E01K, pts_roa_ROL_E01K,
	Total_Score_Final AS total_score, Raw_Month_Score AS month_score,
	Ranking_Regional AS rank_regional, saldo_point AS points_balance`

// Physical filter columns per dataset, keyed by row field name.
var (
	leaderboardColumns = map[string]string{
		model.FieldRegion:   "region",
		model.FieldDivision: "div_sls",
	}
	competitionColumns = map[string]string{
		model.FieldRegion:  "REGION",
		model.FieldZonaRBM: "ZONA_RBM",
		model.FieldZonaBM:  "ZONA_BM",
		model.FieldCabang:  "CABANG",
	}
)

// rankColumn is the ordering column of a competition level.
func rankColumn(level model.Level) string {
	if level == model.LevelASS {
		return "rank_ASS"
	}
	return "rank_zona"
}

// Placeholder binds argument i and returns its SQL placeholder together with
// the value to pass to the driver.
type Placeholder func(i int, v any) (string, any)

// Positional binds with "?" markers.
func Positional(_ int, v any) (string, any) { return "?", v }

type builder struct {
	bind Placeholder
	args []any
}

func (b *builder) arg(v any) string {
	ph, a := b.bind(len(b.args), v)
	b.args = append(b.args, a)
	return ph
}

// where renders p against the physical columns. A clause without fields or
// values matches nothing, as it does in memory.
func (b *builder) where(p model.Predicate, columns map[string]string) (string, error) {
	if p.Unrestricted() {
		return "", nil
	}
	parts := make([]string, 0, len(p.Clauses))
	for _, c := range p.Clauses {
		if len(c.Fields) == 0 || len(c.Values) == 0 {
			parts = append(parts, "1 = 0")
			continue
		}
		ors := make([]string, 0, len(c.Fields))
		for _, f := range c.Fields {
			col, ok := columns[f]
			if !ok {
				return "", fmt.Errorf("%w: %q", ErrUnknownColumn, f)
			}
			ors = append(ors, b.match(col, c.Values))
		}
		clause := strings.Join(ors, " OR ")
		if len(ors) > 1 {
			clause = "(" + clause + ")"
		}
		parts = append(parts, clause)
	}
	return " WHERE " + strings.Join(parts, " AND "), nil
}

func (b *builder) match(col string, values []string) string {
	if len(values) == 1 {
		return col + " = " + b.arg(values[0])
	}
	phs := make([]string, len(values))
	for i, v := range values {
		phs[i] = b.arg(v)
	}
	return col + " IN (" + strings.Join(phs, ", ") + ")"
}

func limitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return " LIMIT " + strconv.Itoa(limit)
}

func leaderboardStatement(bind Placeholder, table string, q model.LeaderboardQuery) (Statement, error) {
	b := &builder{bind: bind}
	where, err := b.where(visibility.ForLeaderboard(q), leaderboardColumns)
	if err != nil {
		return Statement{}, err
	}
	sql := "SELECT " + leaderboardSelect + " FROM " + table + where +
		" ORDER BY Ranking_Regional ASC, Total_Score_Final DESC" + limitClause(q.Limit)
	return Statement{SQL: sql, Args: b.args}, nil
}

func competitionStatement(bind Placeholder, q model.CompetitionQuery) (Statement, error) {
	if err := checkIdentifier(q.Table); err != nil {
		return Statement{}, err
	}
	b := &builder{bind: bind}
	where, err := b.where(q.Predicate, competitionColumns)
	if err != nil {
		return Statement{}, err
	}
	sql := "SELECT * FROM " + q.Table + where +
		" ORDER BY " + rankColumn(q.Key.Level) + " ASC" + limitClause(q.Limit)
	return Statement{SQL: sql, Args: b.args}, nil
}

func cutoffMarkerStatement(table string) Statement {
	return Statement{SQL: "SELECT MAX(tgl_update) AS marker FROM " + table}
}

func cutoffMetadataStatement(table string) Statement {
	return Statement{SQL: "SELECT tgl_update, ideal FROM " + table + " LIMIT 1"}
}

func zonesStatement(bind Placeholder, table, region string) Statement {
	b := &builder{bind: bind}
	sql := "SELECT DISTINCT ZONA_RBM, ZONA_BM FROM " + table +
		" WHERE REGION = " + b.arg(region) + " LIMIT 1"
	return Statement{SQL: sql, Args: b.args}
}
