// Package record turns raw catalog and item package rows into typed records.
//
// A [Projector] normalizes one row at a time: the internal id column is
// surfaced as "id", version columns are surfaced as "version", and
// rendition lists are expanded into [Rendition] values with absolute URLs.
// The *FromRow builders then read the typed fields they know about and keep
// the full normalized row for callers that need columns not modelled here.
package record

import (
	"strconv"
)

// Row is a projected row keyed by column name. Values are int64, float64,
// string, []byte, []Rendition or nil.
type Row map[string]any

// Int64 reads an integer column. Text holding a decimal integer is accepted.
func (r Row) Int64(name string) int64 {
	switch v := r[name].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	default:
		return 0
	}
}

// OptionalInt64 reads an integer column and reports whether it was set.
func (r Row) OptionalInt64(name string) (int64, bool) {
	if v, ok := r[name]; !ok || v == nil {
		return 0, false
	}
	return r.Int64(name), true
}

// String reads a text column; integers are formatted in base 10.
func (r Row) String(name string) string {
	switch v := r[name].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// Bool reads an integer flag column.
func (r Row) Bool(name string) bool {
	return r.Int64(name) != 0
}

// Renditions reads an expanded rendition column.
func (r Row) Renditions(name string) []Rendition {
	v, _ := r[name].([]Rendition)
	return v
}

// Has reports whether the column is present, even if NULL.
func (r Row) Has(name string) bool {
	_, ok := r[name]
	return ok
}
