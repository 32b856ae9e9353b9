package postgres

import (
	"fmt"
	"strings"

	"github.com/wolfeidau/location/internal/store"
)

// queryBuilder accumulates WHERE clauses and their positional arguments.
type queryBuilder struct {
	clauses []string
	args    []any
}

// arg registers a positional argument and returns its placeholder.
func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) where(clause string) {
	b.clauses = append(b.clauses, clause)
}

func (b *queryBuilder) whereSQL() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

// pageSQL renders LIMIT/OFFSET; a zero limit returns every row.
func (b *queryBuilder) pageSQL(limit, offset int) string {
	var sb strings.Builder
	if limit > 0 {
		sb.WriteString(" LIMIT " + b.arg(limit))
	}
	if offset > 0 {
		sb.WriteString(" OFFSET " + b.arg(offset))
	}
	return sb.String()
}

// orderSQL renders an ORDER BY clause from a whitelisted ordering, mapping
// JSON field names to columns and appending the primary key.
func orderSQL(ordering store.Ordering, columns map[string]string, pk string) string {
	if len(ordering) == 0 {
		ordering = store.DefaultOrdering
	}

	terms := make([]string, 0, len(ordering)+1)
	for _, term := range ordering {
		column, ok := columns[term.Field]
		if !ok {
			continue
		}
		if term.Desc {
			column += " DESC"
		}
		terms = append(terms, column)
	}
	terms = append(terms, pk)

	return " ORDER BY " + strings.Join(terms, ", ")
}

// likePattern builds a case-insensitive substring pattern, escaping the
// LIKE wildcards in term.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

func columnMap(fields []string, renames map[string]string) map[string]string {
	columns := make(map[string]string, len(fields))
	for _, field := range fields {
		columns[field] = field
	}
	for field, column := range renames {
		columns[field] = column
	}
	return columns
}
