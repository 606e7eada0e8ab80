package api

import (
	"net/http"

	"github.com/querychat/querychat/internal/chart"
	"github.com/querychat/querychat/internal/log"
)

// chartsHandler serves the chart showcase endpoint: canned datasets run
// through the real inference engine, so the frontend can render every chart
// type without a database or model in the loop.
type chartsHandler struct {
	logger log.Logger
}

// showcase returns the fixture dataset for the requested chart type together
// with the recommendation the inference engine produces for it.
func (h *chartsHandler) showcase(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("type")

	fixture, ok := chart.Fixtures()[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_chart_type", "unknown chart type: "+name)
		return
	}

	rec := chart.Recommend(fixture.Data, fixture.SQL)

	writeJSON(w, http.StatusOK, map[string]any{
		"question":       fixture.Query,
		"sql":            fixture.SQL,
		"data":           fixture.Data,
		"recommendation": rec,
	})
}
