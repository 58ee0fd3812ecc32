// SPDX-License-Identifier: Apache-2.0

// Package flags binds the pgredact CLI's flags into viper, the same
// SetEnvPrefix/AutomaticEnv/BindPFlag wiring pgroll's own cmd/flags uses.
package flags

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Register attaches pgredact's flags to cmd and binds them into viper.
func Register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("locale", "l", "en", "Locale for generated values (en, ru)")
	cmd.PersistentFlags().StringP("delimiter", "d", `\t`, "COPY field delimiter for plain-format input")
	cmd.PersistentFlags().StringP("format", "f", "", "Input format: plain/p, custom/c, or auto-detect if omitted")
	cmd.PersistentFlags().StringArray("delete-table-pattern", nil, "Regex matching (schema.)?table names whose data is fully suppressed; repeatable")

	viper.BindPFlag("LOCALE", cmd.PersistentFlags().Lookup("locale"))
	viper.BindPFlag("DELIMITER", cmd.PersistentFlags().Lookup("delimiter"))
	viper.BindPFlag("FORMAT", cmd.PersistentFlags().Lookup("format"))
	viper.BindPFlag("DELETE_TABLE_PATTERN", cmd.PersistentFlags().Lookup("delete-table-pattern"))
}

func Locale() string                { return viper.GetString("LOCALE") }
func Delimiter() string             { return viper.GetString("DELIMITER") }
func Format() string                { return viper.GetString("FORMAT") }
func DeleteTablePatterns() []string { return viper.GetStringSlice("DELETE_TABLE_PATTERN") }

// SecretKey and SecretKeyNonce read straight from the environment,
// bypassing viper's SetEnvPrefix/AutomaticEnv wiring above: that prefix
// rewrites every key AutomaticEnv resolves to PGREDACT_<KEY>, but these
// two are documented as bare SECRET_KEY/SECRET_KEY_NONCE env vars, not
// pgredact-namespaced ones.
func SecretKey() string      { return os.Getenv("SECRET_KEY") }
func SecretKeyNonce() string { return os.Getenv("SECRET_KEY_NONCE") }
