package warehouse

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	model "github.com/okian/salesboard/internal/domain/model"
)

// floater is implemented by decimal types such as shopspring/decimal.
type floater interface {
	Float64() (float64, bool)
}

// scalar reduces a scanned driver value to nil, string, bool, int64 or
// float64. Pointers are followed, decimals become float64, dates become
// "2006-01-02" and timestamps RFC 3339.
func scalar(v any) any {
	if v == nil {
		return nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return scalar(rv.Elem().Interface())
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		return t
	case float64:
		return finite(t)
	case float32:
		return finite(float64(t))
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case int64:
		return t
	case uint:
		return int64(t) //nolint:gosec // warehouse counters fit
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return int64(t) //nolint:gosec // warehouse counters fit
	case time.Time:
		return formatTime(t)
	case floater:
		f, _ := t.Float64()
		return finite(f)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

// finite maps NaN and infinities to nil; JSON cannot carry them.
func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}

// numericTypes are database type names whose text values are parsed as numbers.
var numericTypes = map[string]struct{}{
	"FIXED": {}, "REAL": {}, "NUMBER": {}, "DECIMAL": {}, "NUMERIC": {},
	"FLOAT": {}, "DOUBLE": {}, "INT": {}, "INTEGER": {}, "BIGINT": {},
}

// toRow builds a row from parallel column names and scanned values. Column
// names are lower-cased since some engines fold unquoted identifiers to upper case.
func toRow(columns, dbTypes []string, values []any) model.Row {
	row := make(model.Row, len(columns))
	for i, c := range columns {
		v := scalar(values[i])
		if s, ok := v.(string); ok && i < len(dbTypes) {
			if _, numeric := numericTypes[strings.ToUpper(dbTypes[i])]; numeric {
				if f, err := strconv.ParseFloat(s, 64); err == nil {
					v = f
				}
			}
		}
		row[strings.ToLower(c)] = v
	}
	return row
}
