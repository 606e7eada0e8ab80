package database

import "encoding/json"

// Row maps column names to scalar values for one result row.
type Row map[string]any

// ResultSet is an ordered sequence of rows plus the column order the
// database returned them in. Go maps do not preserve insertion order, so
// Columns carries the positional order chart inference depends on.
type ResultSet struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (rs ResultSet) Len() int { return len(rs.Rows) }

// Empty reports whether the result set has no rows.
func (rs ResultSet) Empty() bool { return len(rs.Rows) == 0 }

// Sample returns up to n leading rows without copying row contents.
func (rs ResultSet) Sample(n int) []Row {
	if n > len(rs.Rows) {
		n = len(rs.Rows)
	}
	return rs.Rows[:n]
}

// MarshalJSON encodes the result set as a plain array of row objects,
// matching what API clients expect for tabular data. A nil row slice
// encodes as [] rather than null.
func (rs ResultSet) MarshalJSON() ([]byte, error) {
	if rs.Rows == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(rs.Rows)
}
