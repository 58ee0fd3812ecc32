// SPDX-License-Identifier: Apache-2.0

// Package perrors defines the error kinds produced by the redact pipeline.
//
// Every error that can reach the CLI boundary carries a Kind so that
// cmd/errors.go can translate it into the correct process exit code
// without re-deriving the failure category from string matching.
package perrors

import "fmt"

// Kind is the category of a pipeline error; it determines the process
// exit code the CLI reports for it.
type Kind string

const (
	KindConfig             Kind = "config"
	KindIO                 Kind = "io"
	KindUnsupportedFormat  Kind = "unsupported-format"
	KindUnsupportedVersion Kind = "unsupported-version"
	KindTruncatedInput     Kind = "truncated-input"
	KindRuleParse          Kind = "rule-parse"
	KindMissingSecret      Kind = "missing-secret"
	KindUniquenessExhausted Kind = "uniqueness-exhausted"
	KindUnsupportedLocale  Kind = "unsupported-locale"
	KindRegexInvalid       Kind = "regex-invalid"
)

// Located is satisfied by errors that can describe where in the input
// stream they occurred, so the stderr diagnostic can point at it.
type Located interface {
	error
	Location() string
}

// ConfigError reports a bad CLI flag or bad locale selection.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("config: %s", e.Reason) }
func (e *ConfigError) Kind() Kind    { return KindConfig }

// IOError wraps a failure reading stdin or writing stdout.
type IOError struct {
	Reason string
	Err    error
}

func (e *IOError) Error() string { return fmt.Sprintf("io: %s: %s", e.Reason, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }
func (e *IOError) Kind() Kind    { return KindIO }

// UnsupportedFormatError reports a dump whose magic bytes or compression
// method this implementation cannot decode.
type UnsupportedFormatError struct {
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported-format: %s", e.Reason)
}
func (e *UnsupportedFormatError) Kind() Kind { return KindUnsupportedFormat }

// UnsupportedVersionError reports a custom-format archive version outside
// the supported band (1.12.0-1.16.0).
type UnsupportedVersionError struct {
	Major, Minor, Rev int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported-version: archive format %d.%d.%d is not in the supported range 1.12.0-1.16.0",
		e.Major, e.Minor, e.Rev)
}
func (e *UnsupportedVersionError) Kind() Kind { return KindUnsupportedVersion }

// TruncatedInputError reports a stream that closed mid-row or mid-block.
type TruncatedInputError struct {
	Location string
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("truncated-input: input ended unexpectedly at %s", e.Location)
}
func (e *TruncatedInputError) Kind() Kind { return KindTruncatedInput }

// RuleParseError is recovered locally: the offending rule is dropped and a
// diagnostic is written to stderr, but the run continues.
type RuleParseError struct {
	Context string
	Err     error
}

func (e *RuleParseError) Error() string {
	return fmt.Sprintf("rule-parse: %s: %s", e.Context, e.Err)
}
func (e *RuleParseError) Unwrap() error { return e.Err }
func (e *RuleParseError) Kind() Kind    { return KindRuleParse }

// MissingSecretError reports a mutation (deterministic_phone_number) that
// requires SECRET_KEY but found it unset.
type MissingSecretError struct {
	Mutation string
}

func (e *MissingSecretError) Error() string {
	return fmt.Sprintf("missing-secret: mutation %q requires SECRET_KEY to be set", e.Mutation)
}
func (e *MissingSecretError) Kind() Kind { return KindMissingSecret }

// UniquenessExhaustedError reports that a unique rule could not find a
// fresh candidate value within its retry budget.
type UniquenessExhaustedError struct {
	Table, Column string
	Attempts      int
}

func (e *UniquenessExhaustedError) Error() string {
	return fmt.Sprintf("uniqueness-exhausted: could not generate a unique value for %s.%s after %d attempts",
		e.Table, e.Column, e.Attempts)
}
func (e *UniquenessExhaustedError) Kind() Kind { return KindUniquenessExhausted }

// UnsupportedLocaleError reports a mutation (middle_name) that only
// supports a subset of locales.
type UnsupportedLocaleError struct {
	Mutation, Locale string
}

func (e *UnsupportedLocaleError) Error() string {
	return fmt.Sprintf("unsupported-locale: mutation %q does not support locale %q", e.Mutation, e.Locale)
}
func (e *UnsupportedLocaleError) Kind() Kind { return KindUnsupportedLocale }

// RegexInvalidError reports a malformed --delete-table-pattern or by_pattern
// condition regex.
type RegexInvalidError struct {
	Pattern string
	Err     error
}

func (e *RegexInvalidError) Error() string {
	return fmt.Sprintf("regex-invalid: %q: %s", e.Pattern, e.Err)
}
func (e *RegexInvalidError) Unwrap() error { return e.Err }
func (e *RegexInvalidError) Kind() Kind    { return KindRegexInvalid }

// KindOf extracts the Kind from any error produced by this package,
// defaulting to KindIO for errors that don't carry a Kind (e.g. a bare
// os.PathError reaching the top of the call stack).
func KindOf(err error) Kind {
	type hasKind interface{ Kind() Kind }
	if k, ok := err.(hasKind); ok {
		return k.Kind()
	}
	return KindIO
}
