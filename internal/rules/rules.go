// SPDX-License-Identifier: Apache-2.0

// Package rules holds the Rule Store: mutation rules parsed from the
// anon: body of COMMENT ON statements (or TOC comment entries), keyed by
// (schema, table, column).
package rules

import "encoding/json"

// ConditionOp is the comparison used by a rule Condition.
type ConditionOp string

const (
	OpEqual     ConditionOp = "equal"
	OpNotEqual  ConditionOp = "not_equal"
	OpByPattern ConditionOp = "by_pattern"
)

// Condition gates whether a Rule fires, evaluated against sibling column
// values in the same row.
type Condition struct {
	ColumnName string      `json:"column_name"`
	Operation  ConditionOp `json:"operation"`
	Value      string      `json:"value"`
}

// Relation declares that the obfuscated value produced for this rule's
// column must be reused wherever another rule references the same source
// value, preserving FK consistency under obfuscation.
type Relation struct {
	TableName      string `json:"table_name"`
	ColumnName     string `json:"column_name"`
	FromColumnName string `json:"from_column_name"`
	ToColumnName   string `json:"to_column_name"`
}

// RelationKey identifies the (table, column) a Relation map is keyed by.
type RelationKey struct {
	Table  string
	Column string
}

func (r Relation) Key() RelationKey {
	return RelationKey{Table: r.TableName, Column: r.ColumnName}
}

// Rule is a single mutation declaration attached to a column (or, for
// table-level delete rules, a table). Multiple Rules may target the same
// column; they are tried in declaration order and the first whose
// Conditions all hold fires. At most one rule fires per row/column.
type Rule struct {
	MutationName   string          `json:"mutation_name"`
	MutationKwargs json.RawMessage `json:"mutation_kwargs,omitempty"`
	Conditions     []Condition     `json:"conditions,omitempty"`
	Relations      []Relation      `json:"relations,omitempty"`
}

// IsDelete reports whether this is the table-delete marker rule
// ({"mutation_name": "delete"}).
func (r Rule) IsDelete() bool { return r.MutationName == "delete" }

// ColumnKey identifies a column a set of Rules is attached to.
type ColumnKey struct {
	Schema, Table, Column string
}

// TableKey identifies a table a table-level Rule (or delete marker) is
// attached to.
type TableKey struct {
	Schema, Table string
}
