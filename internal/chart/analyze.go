package chart

import (
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/querychat/querychat/internal/database"
)

// percentTolerance is how far a numeric column's sum may sit from 100 and
// still read as a percentage distribution.
const percentTolerance = 5.0

var isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// Analysis is the per-column structural classification of a result set.
type Analysis struct {
	RowCount           int      `json:"rowCount"`
	Columns            []string `json:"columns"`
	NumericColumns     []string `json:"numericColumns"`
	CategoricalColumns []string `json:"categoricalColumns"`
	DateColumns        []string `json:"dateColumns"`
	HasPercentages     bool     `json:"hasPercentages"`
}

// Analyze classifies each column by sampling its first non-null value:
// date-like (time value or ISO date prefix), numeric (number or
// float-parseable string), otherwise categorical. A column that is null in
// every row is left unclassified. The percentage signal is set when any
// numeric column's values sum to within percentTolerance of 100.
func Analyze(rs database.ResultSet) Analysis {
	a := Analysis{RowCount: rs.Len(), Columns: rs.Columns}
	if rs.Empty() {
		return a
	}

	for _, col := range rs.Columns {
		sample, ok := firstNonNull(rs.Rows, col)
		if !ok {
			continue
		}
		switch {
		case isDateLike(sample):
			a.DateColumns = append(a.DateColumns, col)
		case isNumeric(sample):
			a.NumericColumns = append(a.NumericColumns, col)
		default:
			a.CategoricalColumns = append(a.CategoricalColumns, col)
		}
	}

	for _, col := range a.NumericColumns {
		sum := 0.0
		for _, row := range rs.Rows {
			sum += asFloat(row[col])
		}
		if math.Abs(sum-100) < percentTolerance {
			a.HasPercentages = true
			break
		}
	}

	return a
}

func firstNonNull(rows []database.Row, col string) (any, bool) {
	for _, row := range rows {
		if v, ok := row[col]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// isDateLike reports whether v is a temporal value. Database drivers return
// date and timestamp columns as time.Time; values arriving as strings (for
// example from cast expressions) match on the ISO date prefix.
func isDateLike(v any) bool {
	switch t := v.(type) {
	case time.Time:
		return true
	case string:
		return isoDatePrefix.MatchString(t)
	}
	return false
}

func isNumeric(v any) bool {
	switch t := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	case string:
		_, err := strconv.ParseFloat(t, 64)
		return err == nil
	}
	return false
}

// asFloat coerces v to a float64, treating unparseable values as zero so a
// stray null or label does not poison a percentage sum.
func asFloat(v any) float64 {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}
