// SPDX-License-Identifier: Apache-2.0

// Package dump is the Format Demultiplexer: it peeks the first bytes of
// the input stream to decide whether it is a plain-text or custom-format
// pg_dump, without losing those bytes for the parser it hands off to.
package dump

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pgredact/pgredact/internal/config"
	"github.com/pgredact/pgredact/internal/dump/custom"
	"github.com/pgredact/pgredact/internal/dump/plain"
	"github.com/pgredact/pgredact/internal/perrors"
	"github.com/pgredact/pgredact/internal/rewrite"
	"github.com/pgredact/pgredact/internal/rules"
)

// peekSize is the length of custom.Magic: exactly those bytes are peeked
// and compared against it.
const peekSize = 5

// Run detects (or honours an explicit override for) the input format and
// hands the stream to the matching parser/writer.
func Run(src io.Reader, dst io.Writer, format config.Format, store *rules.Store, extractor *rules.Extractor, rewriter *rewrite.Rewriter, delimiter byte) error {
	switch format {
	case config.FormatPlain:
		return plain.Run(src, dst, store, extractor, rewriter, delimiter)
	case config.FormatCustom:
		return custom.Run(src, dst, store, extractor, rewriter, delimiter)
	}

	br := bufio.NewReaderSize(src, 64*1024)
	magic, err := br.Peek(peekSize)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return &perrors.IOError{Reason: "peeking input format", Err: err}
	}

	if bytes.Equal(magic, []byte(custom.Magic)) {
		return custom.Run(br, dst, store, extractor, rewriter, delimiter)
	}
	return plain.Run(br, dst, store, extractor, rewriter, delimiter)
}
