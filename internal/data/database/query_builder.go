// Package database builds parameterized list queries with sanitized identifiers.
package database

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

type ConditionType string

const (
	Equal              ConditionType = "="
	NotEqual           ConditionType = "!="
	GreaterThan        ConditionType = ">"
	LessThan           ConditionType = "<"
	LessThanOrEqual    ConditionType = "<="
	GreaterThanOrEqual ConditionType = ">="
	In                 ConditionType = "IN"
	Custom             ConditionType = "CUSTOM"

	unset = -1
)

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

type Condition struct {
	Field    string
	Type     ConditionType
	Value    any
	rawQuery string
}

// WhereCond builds a field comparison. Use WhereRawCond for Custom conditions.
func WhereCond(field string, condType ConditionType, value any) Condition {
	if condType == Custom {
		//nolint:forbidigo // misuse is a programming error
		panic("Use WhereRawCond for Custom type")
	}
	return Condition{Field: field, Type: condType, Value: value}
}

// WhereRawCond embeds raw SQL whose $1..$n placeholders refer to params in order.
// The SQL itself is NOT sanitized.
func WhereRawCond(rawQuery string, params ...any) Condition {
	return Condition{Type: Custom, rawQuery: rawQuery, Value: params}
}

type ListQueryOptions struct {
	Table      string
	Columns    []string
	CountOnly  bool
	Conditions []Condition
	OrderBy    string
	OrderDir   string
	Limit      int
	Offset     int
}

type ListQueryOption func(*ListQueryOptions)

func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	options := &ListQueryOptions{Table: table, Limit: unset, Offset: unset}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithColumns sets the columns to select.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) { o.Columns = cols }
}

// WithCondition adds a single condition.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) { o.Conditions = append(o.Conditions, cond) }
}

// WithOrderBy sets the ordering column and direction.
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = column
		o.OrderDir = direction
	}
}

// WithLimit sets the limit. Accepts 0.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets the offset. Accepts 0.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

// WithCountOnly sets the query to count only.
func WithCountOnly() ListQueryOption {
	return func(o *ListQueryOptions) { o.CountOnly = true }
}

// sanitize quotes "col" or "table.col".
func sanitize(ident string) string {
	return pgx.Identifier(strings.Split(ident, ".")).Sanitize()
}

// BuildListQuery renders SELECT, WHERE, ORDER BY, LIMIT and OFFSET from options.
//
//	query, args := BuildListQuery(NewListQueryOptions("s3_files",
//		WithColumns("id", "key", "status"),
//		WithCondition(WhereCond("status", Equal, "failed")),
//		WithOrderBy("updated_at", "DESC"),
//		WithLimit(50),
//	))
func BuildListQuery(options *ListQueryOptions) (string, []any) {
	if options == nil {
		return "", nil
	}

	var q strings.Builder
	switch {
	case options.CountOnly:
		q.WriteString("SELECT COUNT(*)")
	case len(options.Columns) == 0:
		q.WriteString("SELECT *")
	default:
		cols := make([]string, len(options.Columns))
		for i, c := range options.Columns {
			cols[i] = sanitize(c)
		}
		q.WriteString("SELECT " + strings.Join(cols, ", "))
	}
	q.WriteString(" FROM " + sanitize(options.Table))

	where, args, next := buildWhereClause(options.Conditions, 1)
	if where != "" {
		q.WriteString(" " + where)
	}
	if options.CountOnly {
		return q.String(), args
	}

	if options.OrderBy != "" {
		q.WriteString(" ORDER BY " + sanitize(options.OrderBy))
		if dir := strings.ToUpper(options.OrderDir); dir == "ASC" || dir == "DESC" {
			q.WriteString(" " + dir)
		}
	}
	if options.Limit != unset {
		fmt.Fprintf(&q, " LIMIT $%d", next)
		args = append(args, options.Limit)
		next++
	}
	if options.Offset != unset {
		fmt.Fprintf(&q, " OFFSET $%d", next)
		args = append(args, options.Offset)
	}
	return q.String(), args
}

func buildWhereClause(conds []Condition, start int) (string, []any, int) {
	parts := make([]string, 0, len(conds))
	args := []any{}
	next := start
	for _, c := range conds {
		sqlPart, condArgs, n := processCondition(c, next)
		if sqlPart == "" {
			continue
		}
		parts = append(parts, sqlPart)
		args = append(args, condArgs...)
		next = n
	}
	if len(parts) == 0 {
		return "", args, next
	}
	return "WHERE " + strings.Join(parts, " AND "), args, next
}

func processCondition(c Condition, next int) (string, []any, int) {
	switch c.Type {
	case Custom:
		return customCondition(c, next)
	case In:
		return inCondition(c, next)
	case Equal, NotEqual, GreaterThan, LessThan, LessThanOrEqual, GreaterThanOrEqual:
		if c.Field == "" {
			return "", nil, next
		}
		return fmt.Sprintf("%s %s $%d", sanitize(c.Field), c.Type, next), []any{c.Value}, next + 1
	}
	return "", nil, next
}

func inCondition(c Condition, next int) (string, []any, int) {
	rv := reflect.ValueOf(c.Value)
	if c.Field == "" || rv.Kind() != reflect.Slice || rv.Len() == 0 {
		return "", nil, next
	}
	placeholders := make([]string, rv.Len())
	args := make([]any, rv.Len())
	for i := range rv.Len() {
		placeholders[i] = "$" + strconv.Itoa(next)
		args[i] = rv.Index(i).Interface()
		next++
	}
	return fmt.Sprintf("%s IN (%s)", sanitize(c.Field), strings.Join(placeholders, ", ")), args, next
}

// customCondition renumbers the raw placeholders to follow the preceding conditions.
func customCondition(c Condition, next int) (string, []any, int) {
	if c.rawQuery == "" {
		return "", nil, next
	}
	params, _ := c.Value.([]any)
	args := []any{}
	mapped := map[int]int{}
	out := placeholderRe.ReplaceAllStringFunc(c.rawQuery, func(m string) string {
		n, err := strconv.Atoi(m[1:])
		if err != nil || n < 1 || n > len(params) {
			return m
		}
		if _, ok := mapped[n]; !ok {
			mapped[n] = next
			args = append(args, params[n-1])
			next++
		}
		return "$" + strconv.Itoa(mapped[n])
	})
	return out, args, next
}
