// Package querybuilder renders the small set of PostgreSQL statements the
// repositories need, numbering placeholders ($1, $2, ...) as it goes.
package querybuilder

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// args collects bound values while a statement renders.
type args struct {
	values []any
}

func (a *args) bind(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

// expand replaces each '?' in expr with the next bound placeholder.
func (a *args) expand(expr string, values []any) string {
	if len(values) == 0 {
		return expr
	}
	var out strings.Builder
	next := 0
	for _, r := range expr {
		if r == '?' && next < len(values) {
			out.WriteString(a.bind(values[next]))
			next++
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

type Condition func(a *args) string

func Eq(column string, value any) Condition {
	return func(a *args) string { return column + " = " + a.bind(value) }
}

func Gt(column string, value any) Condition {
	return func(a *args) string { return column + " > " + a.bind(value) }
}

func Gte(column string, value any) Condition {
	return func(a *args) string { return column + " >= " + a.bind(value) }
}

func In[T any](column string, values []T) Condition {
	return func(a *args) string {
		if len(values) == 0 {
			return "1=0"
		}
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = a.bind(v)
		}
		return column + " IN (" + strings.Join(parts, ", ") + ")"
	}
}

func IsNull(column string) Condition {
	return func(*args) string { return column + " IS NULL" }
}

func IsNotNull(column string) Condition {
	return func(*args) string { return column + " IS NOT NULL" }
}

// Expr is a raw predicate whose '?' markers bind values in order.
func Expr(expr string, values ...any) Condition {
	return func(a *args) string { return a.expand(expr, values) }
}

func renderWhere(buf *strings.Builder, a *args, conds []Condition) {
	for i, c := range conds {
		if i == 0 {
			buf.WriteString(" WHERE ")
		} else {
			buf.WriteString(" AND ")
		}
		buf.WriteString(c(a))
	}
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: columns}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conds ...Condition) *SelectBuilder {
	b.where = append(b.where, conds...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 || strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select needs columns and a table")
	}

	var (
		buf strings.Builder
		a   args
	)
	fmt.Fprintf(&buf, "SELECT %s FROM %s", strings.Join(b.columns, ", "), b.table)
	renderWhere(&buf, &a, b.where)
	if len(b.orderBy) > 0 {
		buf.WriteString(" ORDER BY " + strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		buf.WriteString(" LIMIT " + strconv.Itoa(b.limit))
	}
	return buf.String(), a.values, nil
}

type InsertBuilder struct {
	table      string
	columns    []string
	values     []any
	suffix     string
	suffixArgs []any
}

func Insert(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Set(column string, value any) *InsertBuilder {
	b.columns = append(b.columns, column)
	b.values = append(b.values, value)
	return b
}

// Suffix appends trailing SQL such as ON CONFLICT ... DO UPDATE.
func (b *InsertBuilder) Suffix(sql string, values ...any) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	b.suffixArgs = values
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" || len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert needs a table and at least one column")
	}

	var a args
	placeholders := make([]string, len(b.values))
	for i, v := range b.values {
		placeholders[i] = a.bind(v)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", b.table, strings.Join(b.columns, ", "), strings.Join(placeholders, ", "))
	if b.suffix != "" {
		sql += " " + a.expand(b.suffix, b.suffixArgs)
	}
	return sql, a.values, nil
}

// InsertModel builds an insert from the `db` tags of a struct value.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	v := reflect.ValueOf(model)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", nil, fmt.Errorf("insert model is nil")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return "", nil, fmt.Errorf("insert model must be a struct, got %s", v.Kind())
	}

	b := Insert(table)
	for i := 0; i < v.NumField(); i++ {
		field := v.Type().Field(i)
		if !field.IsExported() {
			continue
		}
		column, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		if column == "" || column == "-" {
			continue
		}
		b.Set(column, v.Field(i).Interface())
	}
	return b.Suffix(suffix).ToSQL()
}

type assignment struct {
	column string
	expr   string
	values []any
}

type UpdateBuilder struct {
	table string
	sets  []assignment
	where []Condition
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, expr: "?", values: []any{value}})
	return b
}

func (b *UpdateBuilder) SetExpr(column, expr string, values ...any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, expr: expr, values: values})
	return b
}

func (b *UpdateBuilder) Where(conds ...Condition) *UpdateBuilder {
	b.where = append(b.where, conds...)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" || len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update needs a table and at least one assignment")
	}
	if len(b.where) == 0 {
		return "", nil, fmt.Errorf("update on %s without a where clause", b.table)
	}

	var (
		buf strings.Builder
		a   args
	)
	buf.WriteString("UPDATE " + b.table + " SET ")
	for i, s := range b.sets {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(s.column + " = " + a.expand(s.expr, s.values))
	}
	renderWhere(&buf, &a, b.where)
	return buf.String(), a.values, nil
}
