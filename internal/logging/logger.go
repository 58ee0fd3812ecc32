// SPDX-License-Identifier: Apache-2.0

// Package logging is the run-scoped diagnostic logger, mirroring the
// Logger interface/noopLogger split pgroll's migrations package uses for
// its pterm.Logger wiring.
package logging

import "github.com/pterm/pterm"

// Logger reports the lifecycle of a redact run and the warnings it
// recovers from along the way.
type Logger interface {
	LogRunStart(format string, tableCount int)
	LogRunComplete(rowCount, tableCount int, warningCount int)

	LogTableDeleted(schema, table string)
	LogRuleDropped(context string, err error)
	LogUniquenessExhausted(schema, table, column string, attempts int)

	Info(msg string, args ...any)
}

type runLogger struct {
	logger pterm.Logger
}

type noopLogger struct{}

// New returns a Logger that writes structured lines via pterm.
func New() Logger {
	return &runLogger{logger: pterm.DefaultLogger}
}

// NewNoop returns a Logger that discards everything, for tests.
func NewNoop() Logger {
	return &noopLogger{}
}

func (l *runLogger) LogRunStart(format string, tableCount int) {
	l.logger.Info("starting redact run", l.logger.Args("format", format, "table_count", tableCount))
}

func (l *runLogger) LogRunComplete(rowCount, tableCount, warningCount int) {
	l.logger.Info("redact run complete", l.logger.Args(
		"row_count", rowCount,
		"table_count", tableCount,
		"warning_count", warningCount,
	))
}

func (l *runLogger) LogTableDeleted(schema, table string) {
	l.logger.Info("suppressing table data", l.logger.Args("schema", schema, "table", table))
}

func (l *runLogger) LogRuleDropped(context string, err error) {
	l.logger.Warn("dropping malformed rule", l.logger.Args("context", context, "error", err.Error()))
}

func (l *runLogger) LogUniquenessExhausted(schema, table, column string, attempts int) {
	l.logger.Warn("uniqueness retry budget exhausted", l.logger.Args(
		"schema", schema,
		"table", table,
		"column", column,
		"attempts", attempts,
	))
}

func (l *runLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, l.logger.Args(args))
}

func (l *noopLogger) LogRunStart(format string, tableCount int)                       {}
func (l *noopLogger) LogRunComplete(rowCount, tableCount, warningCount int)            {}
func (l *noopLogger) LogTableDeleted(schema, table string)                            {}
func (l *noopLogger) LogRuleDropped(context string, err error)                        {}
func (l *noopLogger) LogUniquenessExhausted(schema, table, column string, attempts int) {}
func (l *noopLogger) Info(msg string, args ...any)                                     {}
