// Package chart classifies a tabular result set into a visualization
// recommendation. It is pure and deterministic: structural analysis of the
// columns feeds a fixed, priority-ordered rule list where the first matching
// rule wins.
package chart

import (
	"fmt"

	"github.com/querychat/querychat/internal/database"
)

// Type identifies a supported chart type.
type Type string

// Supported chart types.
const (
	Bar     Type = "bar_chart"
	Line    Type = "line_chart"
	Pie     Type = "pie_chart"
	Area    Type = "area_chart"
	Scatter Type = "scatter_chart"
	Table   Type = "table"
)

// Row-count ceilings used by the decision rules.
const (
	maxChartRows = 50 // beyond this, fall back to a table
	maxBarRows   = 15
	maxPieRows   = 8
)

// Config is the axis/key configuration for a recommended chart.
type Config struct {
	Type Type `json:"type"`

	// X/Y axes for bar, line, area, scatter and table.
	X string `json:"x,omitempty"`
	Y string `json:"y,omitempty"`

	// Name/value keys for pie.
	NameKey string `json:"nameKey,omitempty"`
	DataKey string `json:"dataKey,omitempty"`
}

// Recommendation is the full output of chart inference: the chosen type,
// the resolved configuration, a one-sentence reason, and the structural
// analysis for downstream diagnostics.
type Recommendation struct {
	ChartType Type     `json:"chartType"`
	Config    Config   `json:"chartConfig"`
	Reason    string   `json:"reason"`
	Analysis  Analysis `json:"dataAnalysis"`
}

// rule pairs a predicate with the recommendation it produces. Rules are
// evaluated strictly in slice order; reordering changes behavior (the bar
// and pie rules in particular must stay adjacent and in this order).
type rule struct {
	match func(a Analysis) bool
	pick  func(a Analysis) (Type, string)
}

var rules = []rule{
	{
		// No data, or too many rows to plot.
		match: func(a Analysis) bool { return a.RowCount == 0 || a.RowCount > maxChartRows },
		pick: func(a Analysis) (Type, string) {
			if a.RowCount == 0 {
				return Table, "No data to visualize"
			}
			return Table, "Too many rows for chart visualization"
		},
	},
	{
		match: func(a Analysis) bool { return a.RowCount == 1 },
		pick:  func(Analysis) (Type, string) { return Table, "Single row best displayed as table" },
	},
	{
		// Pure single-metric time series.
		match: func(a Analysis) bool {
			return len(a.DateColumns) == 1 && len(a.NumericColumns) == 1 && len(a.CategoricalColumns) == 0
		},
		pick: func(Analysis) (Type, string) { return Line, "Time series data" },
	},
	{
		// Time series with extra columns; checked after the line rule so a
		// pure single-metric series prefers line over area.
		match: func(a Analysis) bool { return len(a.DateColumns) == 1 && len(a.NumericColumns) >= 1 },
		pick:  func(Analysis) (Type, string) { return Area, "Time series with area visualization" },
	},
	{
		// Categorical comparison. Yields to the pie rule below when the
		// values read as a percentage distribution small enough for one.
		match: func(a Analysis) bool {
			if len(a.CategoricalColumns) != 1 || len(a.NumericColumns) != 1 || a.RowCount > maxBarRows {
				return false
			}
			return !(a.HasPercentages && a.RowCount <= maxPieRows)
		},
		pick: func(Analysis) (Type, string) { return Bar, "Categorical comparison" },
	},
	{
		match: func(a Analysis) bool {
			return len(a.CategoricalColumns) == 1 && len(a.NumericColumns) == 1 &&
				a.HasPercentages && a.RowCount <= maxPieRows
		},
		pick: func(Analysis) (Type, string) { return Pie, "Distribution showing parts of whole" },
	},
	{
		match: func(a Analysis) bool {
			return len(a.NumericColumns) == 2 && len(a.CategoricalColumns) == 0 && len(a.DateColumns) == 0
		},
		pick: func(Analysis) (Type, string) { return Scatter, "Relationship between two numeric variables" },
	},
}

// Recommend analyzes rows and returns a chart recommendation. sqlText is
// accepted for future heuristics but not currently consulted.
func Recommend(rs database.ResultSet, sqlText string) Recommendation {
	_ = sqlText

	a := Analyze(rs)

	chartType := Table
	reason := "Complex data structure best displayed as table"
	for _, r := range rules {
		if r.match(a) {
			chartType, reason = r.pick(a)
			break
		}
	}

	return Recommendation{
		ChartType: chartType,
		Config:    resolveConfig(chartType, a),
		Reason:    reason,
		Analysis:  a,
	}
}

// resolveConfig picks the axis/key columns for the chosen type. When a
// rule's designated columns are unavailable the first and second columns of
// the result set are used in positional order.
func resolveConfig(t Type, a Analysis) Config {
	cfg := Config{Type: t}
	switch t {
	case Line, Area:
		cfg.X = firstOf(a.DateColumns, a.Columns, 0)
		cfg.Y = firstOf(a.NumericColumns, a.Columns, 1)
	case Bar:
		cfg.X = firstOf(a.CategoricalColumns, a.Columns, 0)
		cfg.Y = firstOf(a.NumericColumns, a.Columns, 1)
	case Pie:
		cfg.NameKey = firstOf(a.CategoricalColumns, a.Columns, 0)
		cfg.DataKey = firstOf(a.NumericColumns, a.Columns, 1)
	case Scatter:
		cfg.X = firstOf(a.NumericColumns, a.Columns, 0)
		cfg.Y = nthOf(a.NumericColumns, 1, a.Columns, 1)
	case Table:
		cfg.X = positional(a.Columns, 0)
		cfg.Y = positional(a.Columns, 1)
	}
	return cfg
}

// firstOf returns preferred[0], falling back to columns[fallbackIdx].
func firstOf(preferred, columns []string, fallbackIdx int) string {
	return nthOf(preferred, 0, columns, fallbackIdx)
}

// nthOf returns preferred[n], falling back to columns[fallbackIdx].
func nthOf(preferred []string, n int, columns []string, fallbackIdx int) string {
	if n < len(preferred) {
		return preferred[n]
	}
	return positional(columns, fallbackIdx)
}

func positional(columns []string, i int) string {
	if i < len(columns) {
		return columns[i]
	}
	return ""
}

// String implements fmt.Stringer for logging.
func (r Recommendation) String() string {
	return fmt.Sprintf("%s (%s)", r.ChartType, r.Reason)
}
