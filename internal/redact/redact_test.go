// SPDX-License-Identifier: Apache-2.0

package redact_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgredact/pgredact/internal/config"
	"github.com/pgredact/pgredact/internal/logging"
	"github.com/pgredact/pgredact/internal/redact"
)

func TestRunEndToEndPlainFormat(t *testing.T) {
	t.Parallel()

	cfg, err := config.Resolve("en", "", `\t`, []string{"^audit_log$"}, "", "")
	require.NoError(t, err)

	input := "" +
		"CREATE TABLE public.users (id integer, email text);\n" +
		`COMMENT ON COLUMN public.users.email IS 'anon: {"mutation_name": "fixed_value", "mutation_kwargs": {"value": "redacted@example.com"}}';` + "\n" +
		"COPY public.users (id, email) FROM stdin;\n" +
		"1\talice@example.com\n" +
		`\.` + "\n" +
		"CREATE TABLE public.audit_log (id integer);\n" +
		"COPY public.audit_log (id) FROM stdin;\n" +
		"1\n" +
		`\.` + "\n"

	var out strings.Builder
	err = redact.Run(strings.NewReader(input), &out, cfg, logging.NewNoop())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "redacted@example.com")
	assert.NotContains(t, out.String(), "alice@example.com")
	assert.NotContains(t, out.String(), "COPY public.audit_log")
}

func TestRunRejectsBadLocale(t *testing.T) {
	t.Parallel()

	_, err := config.Resolve("fr", "", `\t`, nil, "", "")
	require.Error(t, err)
}
