// Package query builds parameterized PostgreSQL SELECT statements over a
// projection of view field names onto table columns.
package query

import "strings"

// ProjectionMap maps view field names (e.g. "ProcessorID") to qualified
// columns (e.g. "b.processor_id") of one aliased table.
type ProjectionMap struct {
	table   string
	alias   string
	columns map[string]string
	ordered []string
}

// NewProjectionMap creates an empty projection over schema.table aliased as alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		table:   schema + "." + table,
		alias:   alias,
		columns: make(map[string]string),
	}
}

// Project maps column to the view field name and appends it to the select list.
func (p *ProjectionMap) Project(column, viewName string) *ProjectionMap {
	qualified := p.alias + "." + column
	p.columns[viewName] = qualified
	p.ordered = append(p.ordered, qualified)
	return p
}

// Table returns "schema.table alias".
func (p *ProjectionMap) Table() string {
	return p.table + " " + p.alias
}

// Lookup returns the qualified column for a view field name.
func (p *ProjectionMap) Lookup(viewName string) (string, bool) {
	col, ok := p.columns[viewName]
	return col, ok
}

// Column returns the qualified column for viewName, or viewName itself when
// unmapped. Only code-supplied names may pass through here; client input
// goes through Lookup.
func (p *ProjectionMap) Column(viewName string) string {
	if col, ok := p.columns[viewName]; ok {
		return col
	}
	return viewName
}

// Columns returns the select list in projection order.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.ordered, ", ")
}
