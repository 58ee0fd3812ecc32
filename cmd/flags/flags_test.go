// SPDX-License-Identifier: Apache-2.0

package flags_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pgredact/pgredact/cmd/flags"
)

// SECRET_KEY/SECRET_KEY_NONCE are documented as bare env vars, unlike
// every other setting which rides viper's PGREDACT_ prefix — they must
// not require a PGREDACT_ prefix to be read.
func TestSecretKeyReadsBareEnvVar(t *testing.T) {
	t.Setenv("SECRET_KEY", "a-secret")
	t.Setenv("SECRET_KEY_NONCE", "a-nonce")

	assert.Equal(t, "a-secret", flags.SecretKey())
	assert.Equal(t, "a-nonce", flags.SecretKeyNonce())
}

func TestSecretKeyIgnoresPrefixedEnvVar(t *testing.T) {
	t.Setenv("PGREDACT_SECRET_KEY", "wrong-value")

	assert.Empty(t, flags.SecretKey())
}
