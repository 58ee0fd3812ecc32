// SPDX-License-Identifier: Apache-2.0

package rewrite

import (
	"fmt"
	"regexp"

	"github.com/pgredact/pgredact/internal/locale"
	"github.com/pgredact/pgredact/internal/mutate"
	"github.com/pgredact/pgredact/internal/perrors"
	"github.com/pgredact/pgredact/internal/rules"
	"github.com/pgredact/pgredact/internal/state"
)

// Diagnostic reports a rule dropped the first time its column is looked
// up, because its mutation_kwargs failed to decode or validate against its
// mutation or one of its by_pattern regexes failed to compile. The column
// carries on without that rule.
type Diagnostic struct {
	Context string
	Err     error
}

func (d Diagnostic) String() string {
	return (&perrors.RuleParseError{Context: d.Context, Err: d.Err}).Error()
}

// compiledRule pairs a Rule with its decoded Mutation, its precompiled
// by_pattern condition regexes, and the key its uniqueness set (if any)
// is tracked under.
type compiledRule struct {
	rule           rules.Rule
	mutation       mutate.Mutation
	patternRegexes map[int]*regexp.Regexp

	schema, table, column string
	uniqueKey             string
}

// Rewriter applies the Rule Store's column rules to rows, threading the
// run's shared State (RNG, Relation Store, Uniqueness Tracker) through
// every mutation call. Rules are decoded lazily, the first time a column
// is looked up, and cached from then on — this lets a Rewriter be handed
// a Store that is still being filled in by the Schema Extractor as the
// dump's pre-data section streams past, so long as every column's rules
// are in place before that column's first data row arrives (true for
// pg_dump's normal ordering: schema and comments before data).
type Rewriter struct {
	store  *rules.Store
	state  *state.State
	locale locale.Code

	cache       map[rules.ColumnKey][]compiledRule
	diagnostics []Diagnostic

	rowCount   int
	tableSeen  map[string]struct{}
}

// NewRewriter builds a Rewriter backed by store.
func NewRewriter(store *rules.Store, st *state.State, loc locale.Code) *Rewriter {
	return &Rewriter{
		store:     store,
		state:     st,
		locale:    loc,
		cache:     make(map[rules.ColumnKey][]compiledRule),
		tableSeen: make(map[string]struct{}),
	}
}

// RowCount returns the number of rows RewriteRow has processed so far,
// for the completion summary.
func (rw *Rewriter) RowCount() int { return rw.rowCount }

// TableCount returns the number of distinct schema.table pairs
// RewriteRow has processed rows for so far.
func (rw *Rewriter) TableCount() int { return len(rw.tableSeen) }

// compiledFor returns the compiled rules for key, decoding and caching
// them on first use.
func (rw *Rewriter) compiledFor(key rules.ColumnKey) []compiledRule {
	if crs, ok := rw.cache[key]; ok {
		return crs
	}

	var crs []compiledRule
	for i, r := range rw.store.RulesFor(key.Schema, key.Table, key.Column) {
		context := fmt.Sprintf("%s.%s.%s", key.Schema, key.Table, key.Column)

		m, err := mutate.Decode(mutate.Name(r.MutationName), r.MutationKwargs)
		if err != nil {
			rw.diagnostics = append(rw.diagnostics, Diagnostic{Context: context, Err: err})
			continue
		}

		patternRegexes, err := compilePatternConditions(r.Conditions)
		if err != nil {
			rw.diagnostics = append(rw.diagnostics, Diagnostic{Context: context, Err: err})
			continue
		}

		crs = append(crs, compiledRule{
			rule:           r,
			mutation:       m,
			patternRegexes: patternRegexes,
			schema:         key.Schema,
			table:          key.Table,
			column:         key.Column,
			uniqueKey:      fmt.Sprintf("%s#%d", context, i),
		})
	}

	rw.cache[key] = crs
	return crs
}

// compilePatternConditions precompiles every by_pattern condition's regex
// so RewriteRow never compiles on the hot path, and a malformed regex is
// reported once (as RegexInvalidError) instead of silently never
// matching on every row.
func compilePatternConditions(conds []rules.Condition) (map[int]*regexp.Regexp, error) {
	var out map[int]*regexp.Regexp
	for i, c := range conds {
		if c.Operation != rules.OpByPattern {
			continue
		}
		re, err := regexp.Compile(c.Value)
		if err != nil {
			return nil, &perrors.RegexInvalidError{Pattern: c.Value, Err: err}
		}
		if out == nil {
			out = make(map[int]*regexp.Regexp)
		}
		out[i] = re
	}
	return out, nil
}

// Diagnostics returns the rules dropped so far, in encounter order.
func (rw *Rewriter) Diagnostics() []Diagnostic { return rw.diagnostics }

// RewriteRow rewrites row's values in place: for each column, the first
// rule whose conditions hold against the row's current values fires. A
// NULL sentinel is passed through unchanged unless the matched mutation
// is one of the few that produce a value for NULL input too (null,
// empty_string, fixed_value).
func (rw *Rewriter) RewriteRow(row *Row) error {
	rw.rowCount++
	rw.tableSeen[row.Schema+"."+row.Table] = struct{}{}

	for i, colName := range row.Columns {
		key := rules.ColumnKey{Schema: row.Schema, Table: row.Table, Column: colName}
		candidates := rw.compiledFor(key)
		if len(candidates) == 0 {
			continue
		}

		cr, matched := matchRule(candidates, row)
		if !matched {
			continue
		}

		value := row.Values[i]
		if value == mutate.NullSentinel && mutate.PassesNullThrough(mutate.Name(cr.rule.MutationName)) {
			continue
		}

		out, err := rw.apply(cr, row, value)
		if err != nil {
			return err
		}
		row.Values[i] = out
	}
	return nil
}

// matchRule returns the first candidate whose conditions all hold, tried
// in declaration order.
func matchRule(candidates []compiledRule, row *Row) (compiledRule, bool) {
	for _, cr := range candidates {
		if cr.conditionsHold(row) {
			return cr, true
		}
	}
	return compiledRule{}, false
}

func (cr compiledRule) conditionsHold(row *Row) bool {
	for i, c := range cr.rule.Conditions {
		sibling, ok := row.Column(c.ColumnName)
		if !ok {
			return false
		}
		switch c.Operation {
		case rules.OpEqual:
			if sibling != c.Value {
				return false
			}
		case rules.OpNotEqual:
			if sibling == c.Value {
				return false
			}
		case rules.OpByPattern:
			if !cr.patternRegexes[i].MatchString(sibling) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// apply produces the obfuscated value for a matched rule, honouring the
// rule's relation (reuse a value already generated for the same source)
// and uniqueness (retry until a fresh value is found or the budget runs
// out) declarations.
func (rw *Rewriter) apply(cr compiledRule, row *Row, value string) (string, error) {
	ctx := &mutate.Context{Value: value, Row: row, State: rw.state, Locale: rw.locale}

	if len(cr.rule.Relations) > 0 {
		rel := cr.rule.Relations[0]
		source, ok := row.Column(rel.FromColumnName)
		if !ok {
			return "", &perrors.RuleParseError{
				Context: cr.uniqueKey,
				Err:     fmt.Errorf("relation from_column_name %q not present in row", rel.FromColumnName),
			}
		}

		if stored, found := rw.state.Relations.Lookup(rel.Key(), source); found {
			return stored, nil
		}

		generated, err := rw.generate(cr, ctx)
		if err != nil {
			return "", err
		}
		rw.state.Relations.Store(rel.Key(), source, generated)
		return generated, nil
	}

	return rw.generate(cr, ctx)
}

// generate calls the mutation, retrying against the Uniqueness Tracker
// when the rule asked for uniqueness.
func (rw *Rewriter) generate(cr compiledRule, ctx *mutate.Context) (string, error) {
	if !cr.mutation.Unique() {
		return cr.mutation.Apply(ctx)
	}

	for attempt := 0; attempt < rw.state.RetryBudget; attempt++ {
		candidate, err := cr.mutation.Apply(ctx)
		if err != nil {
			return "", err
		}
		if !rw.state.Uniqueness.Seen(cr.uniqueKey, candidate) {
			rw.state.Uniqueness.Record(cr.uniqueKey, candidate)
			return candidate, nil
		}
	}

	return "", &perrors.UniquenessExhaustedError{
		Table:    cr.table,
		Column:   cr.column,
		Attempts: rw.state.RetryBudget,
	}
}
