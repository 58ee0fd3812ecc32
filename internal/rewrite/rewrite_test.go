// SPDX-License-Identifier: Apache-2.0

package rewrite_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgredact/pgredact/internal/locale"
	"github.com/pgredact/pgredact/internal/mutate"
	"github.com/pgredact/pgredact/internal/rewrite"
	"github.com/pgredact/pgredact/internal/rules"
	"github.com/pgredact/pgredact/internal/state"
)

func newStore(t *testing.T) *rules.Store {
	t.Helper()
	s, err := rules.NewStore(nil)
	require.NoError(t, err)
	return s
}

func TestRewriteRowAppliesFixedValue(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	store.AddColumnRule(rules.ColumnKey{Schema: "public", Table: "users", Column: "email"}, rules.Rule{
		MutationName:   string(mutate.NameFixedValue),
		MutationKwargs: []byte(`{"value": "redacted@example.com"}`),
	})

	rw := rewrite.NewRewriter(store, state.New(nil, nil), locale.EN)
	assert.Empty(t, rw.Diagnostics())

	row := rewrite.NewRow("public", "users", []string{"id", "email"}, []string{"1", "alice@example.com"})
	require.NoError(t, rw.RewriteRow(row))

	assert.Equal(t, "1", row.Values[0])
	assert.Equal(t, "redacted@example.com", row.Values[1])
}

func TestRewriteRowCountsRowsAndDistinctTables(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	rw := rewrite.NewRewriter(store, state.New(nil, nil), locale.EN)

	for i := 0; i < 3; i++ {
		row := rewrite.NewRow("public", "users", []string{"id"}, []string{fmt.Sprintf("%d", i)})
		require.NoError(t, rw.RewriteRow(row))
	}
	row := rewrite.NewRow("public", "orders", []string{"id"}, []string{"1"})
	require.NoError(t, rw.RewriteRow(row))

	assert.Equal(t, 4, rw.RowCount())
	assert.Equal(t, 2, rw.TableCount())
}

func TestRewriteRowPassesNullThrough(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	store.AddColumnRule(rules.ColumnKey{Schema: "public", Table: "users", Column: "email"}, rules.Rule{
		MutationName: string(mutate.NameEmail),
	})

	rw := rewrite.NewRewriter(store, state.New(nil, nil), locale.EN)

	row := rewrite.NewRow("public", "users", []string{"email"}, []string{mutate.NullSentinel})
	require.NoError(t, rw.RewriteRow(row))

	assert.Equal(t, mutate.NullSentinel, row.Values[0])
}

func TestRewriteRowNullMutationOverridesNonNullInput(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	store.AddColumnRule(rules.ColumnKey{Schema: "public", Table: "users", Column: "note"}, rules.Rule{
		MutationName: string(mutate.NameNull),
	})

	rw := rewrite.NewRewriter(store, state.New(nil, nil), locale.EN)

	row := rewrite.NewRow("public", "users", []string{"note"}, []string{"hello"})
	require.NoError(t, rw.RewriteRow(row))

	assert.Equal(t, mutate.NullSentinel, row.Values[0])
}

func TestRewriteRowHonoursConditions(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	key := rules.ColumnKey{Schema: "public", Table: "users", Column: "email"}
	store.AddColumnRule(key, rules.Rule{
		MutationName:   string(mutate.NameFixedValue),
		MutationKwargs: []byte(`{"value": "staff@example.com"}`),
		Conditions: []rules.Condition{
			{ColumnName: "role", Operation: rules.OpEqual, Value: "staff"},
		},
	})
	store.AddColumnRule(key, rules.Rule{
		MutationName:   string(mutate.NameFixedValue),
		MutationKwargs: []byte(`{"value": "redacted@example.com"}`),
	})

	rw := rewrite.NewRewriter(store, state.New(nil, nil), locale.EN)

	staffRow := rewrite.NewRow("public", "users", []string{"role", "email"}, []string{"staff", "a@b.com"})
	require.NoError(t, rw.RewriteRow(staffRow))
	assert.Equal(t, "staff@example.com", staffRow.Values[1])

	otherRow := rewrite.NewRow("public", "users", []string{"role", "email"}, []string{"customer", "c@d.com"})
	require.NoError(t, rw.RewriteRow(otherRow))
	assert.Equal(t, "redacted@example.com", otherRow.Values[1])
}

func TestRewriteRowReusesRelationValue(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	rel := rules.Relation{TableName: "orders", ColumnName: "customer_email", FromColumnName: "customer_id"}
	store.AddColumnRule(rules.ColumnKey{Schema: "public", Table: "orders", Column: "customer_email"}, rules.Rule{
		MutationName: string(mutate.NameEmail),
		Relations:    []rules.Relation{rel},
	})

	rw := rewrite.NewRewriter(store, state.New(nil, nil), locale.EN)

	first := rewrite.NewRow("public", "orders", []string{"customer_id", "customer_email"}, []string{"42", "alice@example.com"})
	require.NoError(t, rw.RewriteRow(first))

	second := rewrite.NewRow("public", "orders", []string{"customer_id", "customer_email"}, []string{"42", "alice-alt@example.com"})
	require.NoError(t, rw.RewriteRow(second))

	assert.Equal(t, first.Values[1], second.Values[1])
}

func TestRewriteRowUniquenessRetriesThenExhausts(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	store.AddColumnRule(rules.ColumnKey{Schema: "public", Table: "users", Column: "code"}, rules.Rule{
		MutationName:   string(mutate.NameRandomChoice),
		MutationKwargs: []byte(`{"unique": true, "choices": ["a", "b"]}`),
	})

	st := state.New(nil, nil)
	st.RetryBudget = 10
	rw := rewrite.NewRewriter(store, st, locale.EN)

	for i, want := range []string{"a", "b"} {
		row := rewrite.NewRow("public", "users", []string{"code"}, []string{fmt.Sprintf("in-%d", i)})
		require.NoError(t, rw.RewriteRow(row))
		assert.Contains(t, []string{"a", "b"}, row.Values[0])
		_ = want
	}

	// The choice set only has two values; a third row must exhaust the
	// uniqueness retry budget once both have been emitted.
	row := rewrite.NewRow("public", "users", []string{"code"}, []string{"in-2"})
	err := rw.RewriteRow(row)
	require.Error(t, err)
}

func TestRewriteRowDropsUndecodableRuleAsDiagnostic(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	store.AddColumnRule(rules.ColumnKey{Schema: "public", Table: "users", Column: "email"}, rules.Rule{
		MutationName:   string(mutate.NameFixedValue),
		MutationKwargs: []byte(`{}`), // missing required "value"
	})

	rw := rewrite.NewRewriter(store, state.New(nil, nil), locale.EN)

	row := rewrite.NewRow("public", "users", []string{"email"}, []string{"alice@example.com"})
	require.NoError(t, rw.RewriteRow(row))
	assert.Equal(t, "alice@example.com", row.Values[0])
	require.Len(t, rw.Diagnostics(), 1)
}
