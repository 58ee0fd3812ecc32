// SPDX-License-Identifier: Apache-2.0

// Package redact wires the Rule Store, Schema Extractor, Row Rewriter,
// run State, and Format Demultiplexer together into a single entry
// point the CLI calls, the way pgroll's pkg/roll ties migrations,
// schema, and state together behind one Roll.
package redact

import (
	"io"

	"github.com/pgredact/pgredact/internal/config"
	"github.com/pgredact/pgredact/internal/dump"
	"github.com/pgredact/pgredact/internal/logging"
	"github.com/pgredact/pgredact/internal/rewrite"
	"github.com/pgredact/pgredact/internal/rules"
	"github.com/pgredact/pgredact/internal/state"
)

// Run reads a pg_dump stream from src, anonymizes it per cfg, and writes
// the result to dst. It is the one function cmd/root.go calls.
func Run(src io.Reader, dst io.Writer, cfg config.Config, logger logging.Logger) error {
	store, err := rules.NewStore(cfg.DeleteTablePatterns)
	if err != nil {
		return err
	}

	extractor, err := rules.NewExtractor(store)
	if err != nil {
		return err
	}

	st := state.New(cfg.SecretKey, cfg.SecretKeyNonce)
	rewriter := rewrite.NewRewriter(store, st, cfg.Locale)

	// The table count a run starts with is unknowable in advance: the
	// pipeline never pre-scans the stream, so LogRunStart only ever
	// reports the chosen/detected format.
	logger.LogRunStart(string(cfg.Format), 0)

	err = dump.Run(src, dst, cfg.Format, store, extractor, rewriter, cfg.Delimiter)

	for _, d := range extractor.Diagnostics() {
		logger.LogRuleDropped(d.Context, d.Err)
	}
	for _, d := range rewriter.Diagnostics() {
		logger.LogRuleDropped(d.Context, d.Err)
	}

	if err != nil {
		return err
	}

	logger.LogRunComplete(rewriter.RowCount(), rewriter.TableCount(), len(extractor.Diagnostics())+len(rewriter.Diagnostics()))
	return nil
}
