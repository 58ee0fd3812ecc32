// SPDX-License-Identifier: Apache-2.0

package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgredact/pgredact/internal/rules"
)

func TestHasAnyRuleForReflectsColumnRules(t *testing.T) {
	t.Parallel()

	store, err := rules.NewStore(nil)
	require.NoError(t, err)

	assert.False(t, store.HasAnyRuleFor("public", "users"))

	store.AddColumnRule(rules.ColumnKey{Schema: "public", Table: "users", Column: "email"}, rules.Rule{
		MutationName: "email",
	})

	assert.True(t, store.HasAnyRuleFor("public", "users"))
	assert.False(t, store.HasAnyRuleFor("public", "orders"))
	assert.False(t, store.HasAnyRuleFor("other", "users"))
}

func TestIsTableDeletedHonoursExplicitFlagAndPatterns(t *testing.T) {
	t.Parallel()

	store, err := rules.NewStore([]string{"^tmp_.*"})
	require.NoError(t, err)
	store.MarkTableDeleted(rules.TableKey{Schema: "public", Table: "sessions"})

	assert.True(t, store.IsTableDeleted("public", "sessions"))
	assert.True(t, store.IsTableDeleted("public", "tmp_cache"))
	assert.False(t, store.IsTableDeleted("public", "users"))
}
