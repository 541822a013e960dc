package query

import (
	"sort"
	"strings"
)

// columnsOf returns the keys of values in a stable order
func columnsOf(values map[string]interface{}) []string {
	cols := make([]string, 0, len(values))
	for k := range values {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Insert renders an INSERT of values into table
func Insert(table string, values map[string]interface{}) Statement {
	cols := columnsOf(values)
	quoted := make([]string, len(cols))
	params := make([]interface{}, len(cols))
	for i, c := range cols {
		quoted[i] = QuoteIdent(c)
		params[i] = values[c]
	}

	sql := "INSERT INTO " + QuoteIdent(table) +
		" (" + strings.Join(quoted, ", ") + ")" +
		" VALUES (" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
	return Statement{SQL: sql, Params: params}
}

// Update renders an UPDATE of table setting values on the rows matching where.
// Value arguments precede the where arguments.
func Update(table string, values map[string]interface{}, where string, args ...interface{}) Statement {
	cols := columnsOf(values)
	set := make([]string, len(cols))
	params := make([]interface{}, 0, len(cols)+len(args))
	for i, c := range cols {
		set[i] = QuoteIdent(c) + " = ?"
		params = append(params, values[c])
	}

	var sb strings.Builder
	sb.WriteString("UPDATE " + QuoteIdent(table) + " SET " + strings.Join(set, ", "))
	if where != "" {
		writeWhere(&sb, []string{where})
		params = append(params, args...)
	}
	return Statement{SQL: sb.String(), Params: params}
}

// Delete renders a DELETE of the rows of table matching where
func Delete(table string, where string, args ...interface{}) Statement {
	var sb strings.Builder
	sb.WriteString("DELETE FROM " + QuoteIdent(table))
	if where != "" {
		writeWhere(&sb, []string{where})
	}
	return Statement{SQL: sb.String(), Params: args}
}
