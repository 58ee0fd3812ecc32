// SPDX-License-Identifier: Apache-2.0

package cmd

import "github.com/pgredact/pgredact/internal/perrors"

// exitCode maps a pipeline error's Kind to the process exit code
// documented for the pgredact CLI.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	switch perrors.KindOf(err) {
	case perrors.KindConfig, perrors.KindRegexInvalid:
		return 1
	case perrors.KindUnsupportedFormat, perrors.KindUnsupportedVersion, perrors.KindTruncatedInput:
		return 2
	case perrors.KindMissingSecret, perrors.KindUniquenessExhausted, perrors.KindUnsupportedLocale:
		return 3
	case perrors.KindIO:
		return 4
	default:
		return 4
	}
}
