package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// condition renders one WHERE predicate. bind records an argument and
// returns its positional placeholder.
type condition func(bind func(arg any) string) string

// SortField is one ORDER BY term named by view field.
type SortField struct {
	Field      string
	Descending bool
}

// Builder accumulates predicates and ordering for a single projection and
// renders them with sequential $n placeholders.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	orderBy     []SortField
	defaultSort []SortField
}

// NewBuilder creates a Builder over projection. defaultSort applies when no
// explicit ordering is set.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// ParseSortFields parses "Status,-StartedAt" into sort fields, where a "-"
// prefix means descending. Blank entries are skipped; empty input is nil.
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// Build returns a SELECT with the current predicates and ordering.
func (b *Builder) Build() (string, []any) {
	where, args := b.where()
	return b.selectFrom() + where + b.order(), args
}

// BuildCount returns a COUNT(*) over the current predicates.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.where()
	return "SELECT COUNT(*) FROM " + b.projection.Table() + where, args
}

// BuildPage returns the page-th window of pageSize rows, 1-indexed.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	where, args := b.where()
	offset := max(page-1, 0) * pageSize
	return fmt.Sprintf("%s%s%s LIMIT %d OFFSET %d", b.selectFrom(), where, b.order(), pageSize, offset), args
}

// BuildSingle returns a SELECT of the row whose idField equals id. Other
// predicates on the builder are ignored.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	return b.selectFrom() + " WHERE " + b.projection.Column(idField) + " = $1", []any{id}
}

// BuildSingleOrNull returns the first row matching the current predicates.
func (b *Builder) BuildSingleOrNull() (string, []any) {
	where, args := b.where()
	return b.selectFrom() + where + " LIMIT 1", args
}

// OrderByFields sets an explicit ordering, replacing the default. Fields
// absent from the projection are dropped.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.orderBy = fields
	return b
}

// WhereContains adds a case-insensitive substring match. LIKE wildcards in
// value match literally. Nil or empty values are skipped.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	col := b.projection.Column(field)
	pattern := containsPattern(*value)
	return b.add(func(bind func(any) string) string {
		return col + " ILIKE " + bind(pattern)
	})
}

// WhereEquals adds an equality predicate. Nil values, including typed nil
// pointers, are skipped.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	col := b.projection.Column(field)
	return b.add(func(bind func(any) string) string {
		return col + " = " + bind(value)
	})
}

// WhereIn adds an IN predicate. Empty value lists are skipped.
func (b *Builder) WhereIn(field string, values []any) *Builder {
	if len(values) == 0 {
		return b
	}
	col := b.projection.Column(field)
	return b.add(func(bind func(any) string) string {
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = bind(v)
		}
		return col + " IN (" + strings.Join(placeholders, ", ") + ")"
	})
}

// WhereNotEmpty requires a non-null, non-empty text column.
func (b *Builder) WhereNotEmpty(field string) *Builder {
	col := b.projection.Column(field)
	return b.add(func(func(any) string) string {
		return "(" + col + " IS NOT NULL AND " + col + " <> '')"
	})
}

// WhereSearch matches search as a substring of any of fields. Nil or empty
// search is skipped.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}
	pattern := containsPattern(*search)
	return b.add(func(bind func(any) string) string {
		clauses := make([]string, len(fields))
		for i, field := range fields {
			clauses[i] = b.projection.Column(field) + " ILIKE " + bind(pattern)
		}
		return "(" + strings.Join(clauses, " OR ") + ")"
	})
}

func (b *Builder) add(c condition) *Builder {
	b.conditions = append(b.conditions, c)
	return b
}

func (b *Builder) selectFrom() string {
	return "SELECT " + b.projection.Columns() + " FROM " + b.projection.Table()
}

func (b *Builder) where() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	var args []any
	bind := func(arg any) string {
		args = append(args, arg)
		return "$" + strconv.Itoa(len(args))
	}

	clauses := make([]string, len(b.conditions))
	for i, c := range b.conditions {
		clauses[i] = c(bind)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (b *Builder) order() string {
	fields := b.orderBy
	if len(fields) == 0 {
		fields = b.defaultSort
	}

	var parts []string
	for _, f := range fields {
		col, ok := b.projection.Lookup(f.Field)
		if !ok {
			continue
		}
		dir := " ASC"
		if f.Descending {
			dir = " DESC"
		}
		parts = append(parts, col+dir)
	}

	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func isNil(value any) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}
