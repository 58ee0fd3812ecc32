// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pgredact/pgredact/cmd/flags"
	"github.com/pgredact/pgredact/internal/config"
	"github.com/pgredact/pgredact/internal/logging"
	"github.com/pgredact/pgredact/internal/redact"
)

// Version is the pgredact version.
var Version = "development"

func init() {
	viper.SetEnvPrefix("PGREDACT")
	viper.AutomaticEnv()

	flags.Register(rootCmd)
}

var rootCmd = &cobra.Command{
	Use:           "pgredact",
	Short:         "Stream a pg_dump through anonymization rules embedded in its comments",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve(
			flags.Locale(),
			flags.Format(),
			flags.Delimiter(),
			flags.DeleteTablePatterns(),
			flags.SecretKey(),
			flags.SecretKeyNonce(),
		)
		if err != nil {
			return err
		}

		logger := logging.New()
		return redact.Run(os.Stdin, os.Stdout, cfg, logger)
	},
}

// Execute runs the root command and returns the process exit code the
// caller should report.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err)
	}
	return 0
}
