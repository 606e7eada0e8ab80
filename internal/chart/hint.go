package chart

import "strings"

// hintKeywords maps question keywords to chart types, checked in order.
var hintKeywords = []struct {
	keyword string
	t       Type
}{
	{"bar", Bar},
	{"line", Line},
	{"pie", Pie},
	{"scatter", Scatter},
	{"area", Area},
	{"table", Table},
}

// RequestedType detects an explicitly requested chart type in the user's
// question, e.g. "show sales by region as a pie chart". The match is a
// simple keyword scan; only "<keyword> chart" counts, so incidental words
// like the "table" in "orders table" do not force a chart type.
func RequestedType(question string) (Type, bool) {
	lower := strings.ToLower(question)
	for _, h := range hintKeywords {
		if strings.Contains(lower, h.keyword+" chart") {
			return h.t, true
		}
	}
	if strings.Contains(lower, "as a table") || strings.Contains(lower, "in a table") {
		return Table, true
	}
	return "", false
}
