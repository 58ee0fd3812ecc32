// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"regexp"

	"github.com/pgredact/pgredact/internal/perrors"
)

// Store is the read-only-after-build Rule Store. It is populated once by
// the Schema Extractor and then shared (read-only) across the rest of
// the run.
type Store struct {
	columns map[ColumnKey][]Rule
	deleted map[TableKey]bool

	deletePatterns []*regexp.Regexp
}

// NewStore builds a Store whose table-delete set additionally honours the
// CLI's --delete-table-pattern regexes.
func NewStore(deletePatterns []string) (*Store, error) {
	s := &Store{
		columns: make(map[ColumnKey][]Rule),
		deleted: make(map[TableKey]bool),
	}
	for _, p := range deletePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &perrors.RegexInvalidError{Pattern: p, Err: err}
		}
		s.deletePatterns = append(s.deletePatterns, re)
	}
	return s, nil
}

// AddColumnRule appends a rule for a column. Declaration order is
// preserved; firing order follows that order.
func (s *Store) AddColumnRule(key ColumnKey, r Rule) {
	s.columns[key] = append(s.columns[key], r)
}

// MarkTableDeleted flags a table for full data suppression.
func (s *Store) MarkTableDeleted(key TableKey) {
	s.deleted[key] = true
}

// RulesFor returns the ordered rule list for a column, or nil if the
// column has no rules.
func (s *Store) RulesFor(schema, table, column string) []Rule {
	return s.columns[ColumnKey{Schema: schema, Table: table, Column: column}]
}

// HasAnyRuleFor reports whether any column of schema.table carries a
// rule, so a caller can skip decompressing and rewriting a table's data
// entirely when nothing in it would change.
func (s *Store) HasAnyRuleFor(schema, table string) bool {
	for key := range s.columns {
		if key.Schema == schema && key.Table == table {
			return true
		}
	}
	return false
}

// IsTableDeleted reports whether a table's data-bearing artifacts must be
// suppressed, either via an explicit table-level delete rule or because
// its qualified or bare name matches one of the --delete-table-pattern
// regexes.
func (s *Store) IsTableDeleted(schema, table string) bool {
	if s.deleted[TableKey{Schema: schema, Table: table}] {
		return true
	}
	qualified := table
	if schema != "" {
		qualified = schema + "." + table
	}
	for _, re := range s.deletePatterns {
		if re.MatchString(table) || (qualified != table && re.MatchString(qualified)) {
			return true
		}
	}
	return false
}
