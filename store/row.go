package store

import (
	"math"
	"strconv"
	"strings"
)

// Row is one record of a table keyed by column name. Empty cells are null.
type Row map[string]string

// Clone returns an independent copy.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Int parses column as an integer. Values written as floats ("3.0") are accepted when integral.
func (r Row) Int(column string) (int, bool) {
	raw := strings.TrimSpace(r[column])
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	// float64(math.MaxInt) rounds up to 2^63, which int cannot hold
	if f >= float64(math.MaxInt) || f < float64(math.MinInt) {
		return 0, false
	}
	return int(f), true
}

// IntOr returns the parsed integer or def.
func (r Row) IntOr(column string, def int) int {
	if n, ok := r.Int(column); ok {
		return n
	}
	return def
}

// Predicate selects rows.
type Predicate func(Row) bool

// ByID matches rows whose column equals id.
func ByID(column string, id int) Predicate {
	return func(r Row) bool {
		n, ok := r.Int(column)
		return ok && n == id
	}
}

// Equals matches rows whose column is exactly value.
func Equals(column, value string) Predicate {
	return func(r Row) bool { return r[column] == value }
}
