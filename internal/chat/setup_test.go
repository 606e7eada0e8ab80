package chat

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/goleak"

	"github.com/querychat/querychat/internal/database"
	"github.com/querychat/querychat/internal/history"
	"github.com/querychat/querychat/internal/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// schemaRows is the metadata result the fake connection serves for the
// introspection query.
var schemaRows = database.ResultSet{
	Columns: []string{"table_name", "column_name"},
	Rows: []database.Row{
		{"table_name": "products", "column_name": "category"},
		{"table_name": "products", "column_name": "count"},
	},
}

// queryResult scripts one data-query outcome.
type queryResult struct {
	rs  database.ResultSet
	err error
}

// fakeConn serves the schema query directly and scripted results for
// everything else, recording the executed statements.
type fakeConn struct {
	results  []queryResult
	executed []string
}

func (f *fakeConn) Query(ctx context.Context, sql string) (database.ResultSet, error) {
	if strings.Contains(sql, "information_schema") {
		return schemaRows, nil
	}
	f.executed = append(f.executed, sql)
	if len(f.results) == 0 {
		return database.ResultSet{}, nil
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r.rs, r.err
}

func (f *fakeConn) Ping(ctx context.Context) error { return nil }
func (f *fakeConn) Close()                         {}

// connMap implements ConnectionSource over a plain map.
type connMap map[string]database.Conn

func (m connMap) Get(sessionID string) (database.Conn, bool) {
	c, ok := m[sessionID]
	return c, ok
}

// completion scripts one Complete outcome.
type completion struct {
	text string
	err  error
}

// fakeCompleter dispatches on prompt content so tests can script each
// pipeline step independently. Generate and repair responses are consumed
// front to back, matching the loop's ordering.
type fakeCompleter struct {
	generate []completion
	repair   []completion
	explain  completion
	followUp completion
	explore  completion

	generateCalls int
	repairCalls   int
	explainCalls  int
	followUpCalls int
	exploreCalls  int
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "expert SQL analyst"):
		f.generateCalls++
		return pop(&f.generate)
	case strings.Contains(prompt, "SQL validator"):
		f.repairCalls++
		return pop(&f.repair)
	case strings.Contains(prompt, "professional data analyst"):
		f.explainCalls++
		return f.explain.text, f.explain.err
	case strings.Contains(prompt, "follow-up questions"):
		f.followUpCalls++
		return f.followUp.text, f.followUp.err
	case strings.Contains(prompt, "5 diverse analytical questions"):
		f.exploreCalls++
		return f.explore.text, f.explore.err
	}
	return "", nil
}

func pop(queue *[]completion) (string, error) {
	if len(*queue) == 0 {
		return "", nil
	}
	c := (*queue)[0]
	*queue = (*queue)[1:]
	return c.text, c.err
}

// categoryRows is a small categorical result: 4 categories with counts.
func categoryRows() database.ResultSet {
	return database.ResultSet{
		Columns: []string{"category", "count"},
		Rows: []database.Row{
			{"category": "Electronics", "count": 4},
			{"category": "Furniture", "count": 3},
			{"category": "Stationery", "count": 2},
			{"category": "Accessories", "count": 1},
		},
	}
}

// newTestService wires a Service over fakes.
func newTestService(t *testing.T, conn database.Conn, completer *fakeCompleter) (*Service, *history.Store) {
	t.Helper()

	hist := history.New(log.NewNop())
	svc, err := New(Config{
		Connections: connMap{"s1": conn},
		History:     hist,
		Completer:   completer,
		Logger:      log.NewNop(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return svc, hist
}
