package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/querychat/querychat/internal/chart"
	"github.com/querychat/querychat/internal/database"
	"github.com/querychat/querychat/internal/history"
)

func TestAskValidation(t *testing.T) {
	svc, _ := newTestService(t, &fakeConn{}, &fakeCompleter{})

	tests := []struct {
		name      string
		sessionID string
		question  string
		want      error
	}{
		{"missing question", "s1", "", ErrMissingQuestion},
		{"whitespace question", "s1", "   ", ErrMissingQuestion},
		{"missing session", "", "how many orders?", ErrMissingSession},
		{"expired session", "unknown", "how many orders?", ErrSessionExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ask(context.Background(), tt.sessionID, tt.question)
			if !errors.Is(err, tt.want) {
				t.Errorf("Ask() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAskEndToEnd(t *testing.T) {
	conn := &fakeConn{results: []queryResult{{rs: categoryRows()}}}
	completer := &fakeCompleter{
		generate: []completion{{text: "```sql\nSELECT category, COUNT(*) AS count FROM products GROUP BY category\n```"}},
		explain: completion{text: "The electronics category leads.\n```json\n" +
			`{"response": "Electronics leads with 4 products.", "insights": ["Electronics dominates", "Accessories trail"]}` +
			"\n```"},
		followUp: completion{text: `["Which category grew fastest?", "What is the price spread?", "Any seasonal pattern?"]`},
	}
	svc, hist := newTestService(t, conn, completer)

	resp, err := svc.Ask(context.Background(), "s1", "show me products by category")
	if err != nil {
		t.Fatal(err)
	}

	if resp.SQL != "SELECT category, COUNT(*) AS count FROM products GROUP BY category" {
		t.Errorf("SQL = %q", resp.SQL)
	}
	if resp.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", resp.Attempts)
	}
	if resp.Answer != "Electronics leads with 4 products." {
		t.Errorf("Answer = %q (structured response should win over prose)", resp.Answer)
	}
	if len(resp.Insights) != 2 {
		t.Errorf("Insights = %v", resp.Insights)
	}
	if len(resp.SuggestedQuestions) != 3 || resp.SuggestedQuestions[0] != "Which category grew fastest?" {
		t.Errorf("SuggestedQuestions = %v", resp.SuggestedQuestions)
	}

	// 4 categorical rows with one numeric column → bar chart.
	if resp.Chart == nil {
		t.Fatal("Chart is nil")
	}
	if resp.Chart.Type != chart.Bar {
		t.Errorf("chart type = %s, want bar", resp.Chart.Type)
	}
	if resp.Chart.X != "category" || resp.Chart.Y != "count" {
		t.Errorf("axes = (%s, %s), want (category, count)", resp.Chart.X, resp.Chart.Y)
	}
	if resp.Chart.Response != resp.Answer {
		t.Error("chart payload does not carry the explanation text")
	}

	// The completed exchange lands in history as exactly one user turn and
	// one assistant turn carrying the executed SQL.
	turns := hist.History("s1")
	if len(turns) != 2 {
		t.Fatalf("history has %d turns, want 2", len(turns))
	}
	if turns[1].SQL != resp.SQL {
		t.Errorf("recorded SQL %q differs from executed SQL %q", turns[1].SQL, resp.SQL)
	}
}

func TestAskRepairLoopSucceedsOnThirdAttempt(t *testing.T) {
	execErr := errors.New(`column "categry" does not exist`)
	conn := &fakeConn{results: []queryResult{
		{err: execErr},
		{err: execErr},
		{rs: categoryRows()},
	}}
	completer := &fakeCompleter{
		generate: []completion{{text: "SELECT one"}},
		repair: []completion{
			{text: "SELECT two"},
			{text: "SELECT three"},
		},
		explain:  completion{text: "fine"},
		followUp: completion{text: `["a","b","c"]`},
	}
	svc, _ := newTestService(t, conn, completer)

	resp, err := svc.Ask(context.Background(), "s1", "products by category")
	if err != nil {
		t.Fatal(err)
	}

	if resp.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", resp.Attempts)
	}
	if resp.SQL != "SELECT three" {
		t.Errorf("SQL = %q, want the attempt-3 statement", resp.SQL)
	}
	if want := []string{"SELECT one", "SELECT two", "SELECT three"}; !equalStrings(conn.executed, want) {
		t.Errorf("executed = %v, want %v", conn.executed, want)
	}
	if completer.repairCalls != 2 {
		t.Errorf("repair called %d times, want 2", completer.repairCalls)
	}
}

func TestAskRepairLoopExhausted(t *testing.T) {
	execErr := errors.New("syntax error at or near FROM")
	conn := &fakeConn{results: []queryResult{{err: execErr}, {err: execErr}, {err: execErr}}}
	completer := &fakeCompleter{
		generate: []completion{{text: "SELECT bad"}},
		repair: []completion{
			{text: "SELECT worse"},
			{text: "SELECT worst"},
		},
	}
	svc, hist := newTestService(t, conn, completer)

	_, err := svc.Ask(context.Background(), "s1", "products by category")

	var execFailure *ExecutionError
	if !errors.As(err, &execFailure) {
		t.Fatalf("error = %v, want *ExecutionError", err)
	}
	if execFailure.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", execFailure.Attempts)
	}
	if execFailure.SQL != "SELECT worst" {
		t.Errorf("SQL = %q, want last attempted statement", execFailure.SQL)
	}
	if !errors.Is(err, execErr) {
		t.Error("ExecutionError does not wrap the last execution error")
	}
	if !strings.Contains(err.Error(), "3 attempts") {
		t.Errorf("error message %q does not reference the attempt count", err)
	}
	if len(hist.History("s1")) != 0 {
		t.Error("failed exchange was recorded in history")
	}
}

func TestAskRepairFailureTolerated(t *testing.T) {
	execErr := errors.New("relation missing")
	conn := &fakeConn{results: []queryResult{
		{err: execErr},
		{err: execErr},
		{rs: categoryRows()},
	}}
	completer := &fakeCompleter{
		generate: []completion{{text: "SELECT same"}},
		repair: []completion{
			{err: errors.New("quota exceeded")},
			{err: errors.New("quota exceeded")},
		},
		explain:  completion{text: "ok"},
		followUp: completion{text: `["a","b","c"]`},
	}
	svc, _ := newTestService(t, conn, completer)

	resp, err := svc.Ask(context.Background(), "s1", "products by category")
	if err != nil {
		t.Fatal(err)
	}

	// With every repair failing, the loop retries the SQL in hand.
	if want := []string{"SELECT same", "SELECT same", "SELECT same"}; !equalStrings(conn.executed, want) {
		t.Errorf("executed = %v, want %v", conn.executed, want)
	}
	if resp.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", resp.Attempts)
	}
}

func TestAskZeroRowsShortCircuits(t *testing.T) {
	conn := &fakeConn{results: []queryResult{{rs: database.ResultSet{Columns: []string{"category"}}}}}
	completer := &fakeCompleter{
		generate: []completion{{text: "SELECT category FROM products WHERE 1=0"}},
	}
	svc, hist := newTestService(t, conn, completer)

	resp, err := svc.Ask(context.Background(), "s1", "products nobody sells")
	if err != nil {
		t.Fatal(err)
	}

	if resp.Chart != nil {
		t.Error("no-results response carries a chart")
	}
	if !strings.Contains(resp.Answer, "returned no results") {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if len(resp.SuggestedQuestions) != 3 {
		t.Errorf("SuggestedQuestions = %v", resp.SuggestedQuestions)
	}
	if resp.Data.Len() != 0 {
		t.Errorf("Data has %d rows", resp.Data.Len())
	}
	// Explanation and follow-up steps are skipped entirely.
	if completer.explainCalls != 0 || completer.followUpCalls != 0 {
		t.Errorf("explain/follow-up invoked on empty result (%d/%d)",
			completer.explainCalls, completer.followUpCalls)
	}
	if len(hist.History("s1")) != 0 {
		t.Error("no-results exchange was recorded in history")
	}
}

func TestAskExplanationCallFailureDegrades(t *testing.T) {
	conn := &fakeConn{results: []queryResult{{rs: categoryRows()}}}
	completer := &fakeCompleter{
		generate: []completion{{text: "SELECT ok"}},
		explain:  completion{err: errors.New("provider unavailable")},
		followUp: completion{text: `["a","b","c"]`},
	}
	svc, _ := newTestService(t, conn, completer)

	resp, err := svc.Ask(context.Background(), "s1", "products by category")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Answer, "4 rows") {
		t.Errorf("fallback answer = %q", resp.Answer)
	}
	if len(resp.Insights) != 0 {
		t.Errorf("Insights = %v, want empty", resp.Insights)
	}
}

func TestAskExplanationParseFailureKeepsProse(t *testing.T) {
	conn := &fakeConn{results: []queryResult{{rs: categoryRows()}}}
	completer := &fakeCompleter{
		generate: []completion{{text: "SELECT ok"}},
		explain:  completion{text: "**Sales** are healthy.\n```json\n{not valid json\n```"},
		followUp: completion{text: `["a","b","c"]`},
	}
	svc, _ := newTestService(t, conn, completer)

	resp, err := svc.Ask(context.Background(), "s1", "products by category")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Answer, "Sales are healthy.") {
		t.Errorf("Answer = %q, want the cleaned prose retained", resp.Answer)
	}
	if len(resp.Insights) != 0 {
		t.Errorf("Insights = %v, want empty on parse failure", resp.Insights)
	}
}

func TestAskFollowUpFallbacks(t *testing.T) {
	t.Run("call failure", func(t *testing.T) {
		conn := &fakeConn{results: []queryResult{{rs: categoryRows()}}}
		completer := &fakeCompleter{
			generate: []completion{{text: "SELECT ok"}},
			explain:  completion{text: "fine"},
			followUp: completion{err: errors.New("timeout")},
		}
		svc, _ := newTestService(t, conn, completer)

		resp, err := svc.Ask(context.Background(), "s1", "products by category")
		if err != nil {
			t.Fatal(err)
		}
		if !equalStrings(resp.SuggestedQuestions, followUpCallFallback) {
			t.Errorf("SuggestedQuestions = %v", resp.SuggestedQuestions)
		}
	})

	t.Run("parse failure", func(t *testing.T) {
		conn := &fakeConn{results: []queryResult{{rs: categoryRows()}}}
		completer := &fakeCompleter{
			generate: []completion{{text: "SELECT ok"}},
			explain:  completion{text: "fine"},
			followUp: completion{text: "I would rather chat about the weather"},
		}
		svc, _ := newTestService(t, conn, completer)

		resp, err := svc.Ask(context.Background(), "s1", "products by category")
		if err != nil {
			t.Fatal(err)
		}
		if !equalStrings(resp.SuggestedQuestions, followUpParseFallback) {
			t.Errorf("SuggestedQuestions = %v", resp.SuggestedQuestions)
		}
	})
}

func TestAskRequestedChartTypeSurfaced(t *testing.T) {
	conn := &fakeConn{results: []queryResult{{rs: categoryRows()}}}
	completer := &fakeCompleter{
		generate: []completion{{text: "SELECT ok"}},
		explain:  completion{text: "fine"},
		followUp: completion{text: `["a","b","c"]`},
	}
	svc, _ := newTestService(t, conn, completer)

	resp, err := svc.Ask(context.Background(), "s1", "show products by category as a pie chart")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Chart.Requested != chart.Pie {
		t.Errorf("Requested = %q, want pie", resp.Chart.Requested)
	}
	// The heuristic recommendation is unchanged by the hint.
	if resp.Chart.Type != chart.Bar {
		t.Errorf("recommended type = %s, want bar", resp.Chart.Type)
	}
}

func TestAskContextSummaryFeedsPrompts(t *testing.T) {
	conn := &fakeConn{results: []queryResult{{rs: categoryRows()}}}
	completer := &fakeCompleter{
		generate: []completion{{text: "SELECT ok"}},
		explain:  completion{text: "fine"},
		followUp: completion{text: `["a","b","c"]`},
	}
	svc, hist := newTestService(t, conn, completer)
	hist.Append("s1", "what were total sales?", history.Exchange{Answer: "42"})

	if _, err := svc.Ask(context.Background(), "s1", "break that down by category"); err != nil {
		t.Fatal(err)
	}

	// The prior user question must appear in the conversation summary the
	// session now carries.
	if got := hist.Summary("s1"); !strings.Contains(got, "what were total sales?") {
		t.Errorf("summary = %q", got)
	}
}

func TestSuggest(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		completer := &fakeCompleter{
			explore: completion{text: `["q1","q2","q3","q4","q5"]`},
		}
		svc, _ := newTestService(t, &fakeConn{}, completer)

		got, err := svc.Suggest(context.Background(), "s1")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 5 || got[0] != "q1" {
			t.Errorf("Suggest = %v", got)
		}
	})

	t.Run("expired session", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeConn{}, &fakeCompleter{})
		if _, err := svc.Suggest(context.Background(), "nobody"); !errors.Is(err, ErrSessionExpired) {
			t.Errorf("error = %v, want ErrSessionExpired", err)
		}
	})

	t.Run("call failure falls back", func(t *testing.T) {
		completer := &fakeCompleter{explore: completion{err: errors.New("quota")}}
		svc, _ := newTestService(t, &fakeConn{}, completer)

		got, err := svc.Suggest(context.Background(), "s1")
		if err != nil {
			t.Fatal(err)
		}
		if !equalStrings(got, exploreCallFallback) {
			t.Errorf("Suggest = %v", got)
		}
	})

	t.Run("parse failure falls back", func(t *testing.T) {
		completer := &fakeCompleter{explore: completion{text: "no list here"}}
		svc, _ := newTestService(t, &fakeConn{}, completer)

		got, err := svc.Suggest(context.Background(), "s1")
		if err != nil {
			t.Fatal(err)
		}
		if !equalStrings(got, exploreParseFallback) {
			t.Errorf("Suggest = %v", got)
		}
	})
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
