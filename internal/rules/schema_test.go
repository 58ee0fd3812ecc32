// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/pgredact/pgredact/internal/jsonschema"
)

const testDataDir = "testdata"

func TestRuleSchemaValidation(t *testing.T) {
	t.Parallel()

	v, err := jsonschema.Compile("rules.schema.json", ruleSchemaDoc)
	require.NoError(t, err)

	files, err := os.ReadDir(testDataDir)
	require.NoError(t, err)

	for _, file := range files {
		t.Run(file.Name(), func(t *testing.T) {
			ac, err := txtar.ParseFile(filepath.Join(testDataDir, file.Name()))
			require.NoError(t, err)
			require.Len(t, ac.Files, 2)

			doc := ac.Files[0].Data
			shouldValidate, err := strconv.ParseBool(strings.TrimSpace(string(ac.Files[1].Data)))
			require.NoError(t, err)

			_, err = v.Validate(doc)
			if shouldValidate {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
