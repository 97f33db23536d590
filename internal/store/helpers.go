package store

import (
	"database/sql"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// placeholderList returns "?,?,?" for n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// int64sToArgs converts []int64 to []any for use with database/sql.
func int64sToArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// marshalParams converts a shape payload to JSON text for storage. JSON
// has no NaN or Inf, so NaN is written as null and infinities as strings.
func marshalParams(params []float64) string {
	if len(params) == 0 {
		return "[]"
	}
	vals := make([]any, len(params))
	for i, p := range params {
		switch {
		case math.IsNaN(p):
			vals[i] = nil
		case math.IsInf(p, 0):
			vals[i] = strconv.FormatFloat(p, 'g', -1, 64)
		default:
			vals[i] = p
		}
	}
	b, _ := json.Marshal(vals)
	return string(b)
}

// unmarshalParams converts JSON text back to a shape payload.
func unmarshalParams(s string) []float64 {
	if s == "" || s == "null" {
		return nil
	}
	var vals []any
	if err := json.Unmarshal([]byte(s), &vals); err != nil {
		return nil
	}
	params := make([]float64, len(vals))
	for i, v := range vals {
		switch v := v.(type) {
		case float64:
			params[i] = v
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				f = math.NaN()
			}
			params[i] = f
		default:
			params[i] = math.NaN()
		}
	}
	return params
}

// areaValue maps NaN to NULL; SQLite has no NaN.
func areaValue(a float64) any {
	if math.IsNaN(a) {
		return nil
	}
	return a
}

func areaFromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// whereClause joins conditions with AND, or returns "" for none.
func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// pageClause appends LIMIT/OFFSET. SQLite needs a LIMIT before OFFSET, so
// an offset without a limit uses LIMIT -1.
func pageClause(limit, offset int) (string, []any) {
	if limit <= 0 && offset <= 0 {
		return "", nil
	}
	if limit <= 0 {
		limit = -1
	}
	return " LIMIT ? OFFSET ?", []any{limit, max(offset, 0)}
}
