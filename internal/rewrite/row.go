// SPDX-License-Identifier: Apache-2.0

// Package rewrite is the Row Rewriter: it walks one row at a time, looks
// up the rules attached to each column, and applies the first one whose
// conditions hold. It is the one place that ties the Rule Store, the
// Mutation Registry, and the run's shared State together.
package rewrite

// Row is one data row flowing through a COPY block, with its column names
// already resolved from the COPY header. It implements mutate.RowView so
// a mutation (e.g. uuid5_by_source_value's source_column) can read
// sibling values while the same row is being rewritten in place.
type Row struct {
	Schema, Table string
	Columns       []string
	Values        []string

	index map[string]int
}

// NewRow builds a Row. columns and values must be the same length and in
// COPY header order.
func NewRow(schema, table string, columns, values []string) *Row {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		idx[c] = i
	}
	return &Row{Schema: schema, Table: table, Columns: columns, Values: values, index: idx}
}

// Column returns the current value of a named column and whether it
// exists in this row.
func (r *Row) Column(name string) (string, bool) {
	i, ok := r.index[name]
	if !ok {
		return "", false
	}
	return r.Values[i], true
}
