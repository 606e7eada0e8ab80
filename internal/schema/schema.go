// Package schema renders a compact textual description of a connected
// database's tables and columns for prompt construction.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/querychat/querychat/internal/database"
)

// Executor is the subset of database.Conn the introspector needs.
type Executor interface {
	Query(ctx context.Context, sql string) (database.ResultSet, error)
}

// columnsQuery lists user-visible columns in the default schema, ordered so
// that columns group by table and keep their ordinal position.
const columnsQuery = `
SELECT table_name, column_name
FROM information_schema.columns
WHERE table_schema = 'public'
ORDER BY table_name, ordinal_position`

// Describe introspects the live catalog and renders it as:
//
//	Tables:
//	- table_a(col1, col2)
//	- table_b(col1)
//
// Nothing is cached; every call re-queries the catalog so schema drift is
// always reflected.
func Describe(ctx context.Context, db Executor) (string, error) {
	rs, err := db.Query(ctx, columnsQuery)
	if err != nil {
		return "", fmt.Errorf("introspect schema: %w", err)
	}

	// Group columns by table, preserving first-seen table order and the
	// ordinal column order from the query.
	var tables []string
	columns := make(map[string][]string)
	for _, row := range rs.Rows {
		table := asString(row["table_name"])
		column := asString(row["column_name"])
		if table == "" || column == "" {
			continue
		}
		if _, seen := columns[table]; !seen {
			tables = append(tables, table)
		}
		columns[table] = append(columns[table], column)
	}

	var b strings.Builder
	b.WriteString("Tables:")
	for _, table := range tables {
		b.WriteString(fmt.Sprintf("\n- %s(%s)", table, strings.Join(columns[table], ", ")))
	}
	return b.String(), nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
