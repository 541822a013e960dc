package query

import (
	"strconv"
	"strings"

	"github.com/nexuscrm/registry/pkg/constants"
)

// Statement is a SQL string with its positional arguments
type Statement struct {
	SQL    string
	Params []interface{}
}

type join struct {
	alias string
	sql   string
}

// Builder assembles a SELECT over one base table.
// Identifiers are back-quoted, which both MySQL and SQLite accept.
type Builder struct {
	table   string
	columns []string
	joins   []join
	where   []string
	params  []interface{}
	orderBy []string
	limit   int // 0 means unbounded
	offset  int
	count   bool
}

// From starts a SELECT on table
func From(table string) *Builder {
	return &Builder{table: table}
}

// Table returns the base table of the query
func (b *Builder) Table() string {
	return b.table
}

// Select adds columns of the base table. The ID column is always selected.
// A name containing a dot is taken as an already qualified reference.
func (b *Builder) Select(fields []string) *Builder {
	if len(fields) == 1 && fields[0] == "*" {
		b.columns = append(b.columns, "*")
		return b
	}

	id := Column(b.table, constants.FieldID)
	hasID := false
	for _, c := range b.columns {
		hasID = hasID || c == id || c == "*"
	}
	for _, f := range fields {
		col := f
		if f != "*" && !strings.Contains(f, ".") {
			col = Column(b.table, f)
		}
		hasID = hasID || col == id
		b.columns = append(b.columns, col)
	}
	if !hasID {
		b.columns = append([]string{id}, b.columns...)
	}
	return b
}

// AddSelectRaw selects an expression, optionally under an alias
func (b *Builder) AddSelectRaw(expression string, alias ...string) *Builder {
	if len(alias) > 0 && alias[0] != "" {
		expression += " AS " + QuoteIdent(alias[0])
	}
	b.columns = append(b.columns, expression)
	return b
}

// Join adds a JOIN clause. A second join under the same alias is ignored.
func (b *Builder) Join(kind, table, alias, on string) *Builder {
	if b.HasJoin(alias) {
		return b
	}
	b.joins = append(b.joins, join{
		alias: alias,
		sql:   kind + " JOIN " + QuoteIdent(table) + " AS " + QuoteIdent(alias) + " ON " + on,
	})
	return b
}

// HasJoin reports whether alias is already joined
func (b *Builder) HasJoin(alias string) bool {
	for _, j := range b.joins {
		if j.alias == alias {
			return true
		}
	}
	return false
}

// Where ANDs a condition onto the query
func (b *Builder) Where(condition string, args ...interface{}) *Builder {
	b.where = append(b.where, condition)
	b.params = append(b.params, args...)
	return b
}

// WhereRaw is Where for pre-built fragments; an empty fragment is skipped
func (b *Builder) WhereRaw(sql string, args []interface{}) *Builder {
	if sql == "" {
		return b
	}
	return b.Where(sql, args...)
}

// OrderBy appends a sort key. Later calls break ties of earlier ones.
func (b *Builder) OrderBy(field, direction string) *Builder {
	col := field
	if !strings.ContainsAny(field, ".`") {
		col = Column(b.table, field)
	}
	b.orderBy = append(b.orderBy, col+" "+direction)
	return b
}

// Limit caps the number of rows
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// Offset skips rows. It only takes effect together with Limit.
func (b *Builder) Offset(n int) *Builder {
	b.offset = n
	return b
}

// Count returns a copy of the builder that selects the number of matching rows
// instead of the rows themselves. Ordering and paging are dropped.
func (b *Builder) Count() *Builder {
	return &Builder{
		table:  b.table,
		joins:  append([]join(nil), b.joins...),
		where:  append([]string(nil), b.where...),
		params: append([]interface{}(nil), b.params...),
		count:  true,
	}
}

// Build renders the query
func (b *Builder) Build() Statement {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	switch {
	case b.count:
		sb.WriteString("COUNT(*) AS `total`")
	case len(b.columns) == 0:
		sb.WriteString("*")
	default:
		sb.WriteString(strings.Join(b.columns, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(QuoteIdent(b.table))

	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j.sql)
	}
	writeWhere(&sb, b.where)

	if !b.count {
		if len(b.orderBy) > 0 {
			sb.WriteString(" ORDER BY ")
			sb.WriteString(strings.Join(b.orderBy, ", "))
		}
		if b.limit > 0 {
			sb.WriteString(" LIMIT ")
			sb.WriteString(strconv.Itoa(b.limit))
			if b.offset > 0 {
				sb.WriteString(" OFFSET ")
				sb.WriteString(strconv.Itoa(b.offset))
			}
		}
	}

	return Statement{SQL: sb.String(), Params: b.params}
}

func writeWhere(sb *strings.Builder, conditions []string) {
	if len(conditions) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}
}
