// SPDX-License-Identifier: Apache-2.0

// Package plain is the Plain Parser/Writer: a line-oriented state machine
// over the text stream produced by `pg_dump -Fp`, scanning and
// dispatching by line prefix the way a COPY-aware dump parser does,
// adapted here to rewrite rows instead of collecting them into an AST.
package plain

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pgredact/pgredact/internal/perrors"
	"github.com/pgredact/pgredact/internal/rewrite"
	"github.com/pgredact/pgredact/internal/rules"
)

// maxLineSize accommodates pg_dump COPY rows far larger than bufio's
// default 64KiB token limit (a single large text/bytea column can easily
// exceed it).
const maxLineSize = 64 * 1024 * 1024

var (
	copyHeaderRe = regexp.MustCompile(`^COPY\s+((?:[\w"]+)\.)?([\w"]+)\s*\(([^)]*)\)\s+FROM\s+stdin;\s*$`)
	columnCommentRe = regexp.MustCompile(`^COMMENT ON COLUMN\s+((?:[\w"]+)\.)?([\w"]+)\.([\w"]+)\s+IS\s+'(.*)';\s*$`)
	tableCommentRe  = regexp.MustCompile(`^COMMENT ON TABLE\s+((?:[\w"]+)\.)?([\w"]+)\s+IS\s+'(.*)';\s*$`)
)

// state is the Plain Parser/Writer's position in the stream.
type state int

const (
	statePreamble state = iota
	stateInCopy
	stateTail
)

// Run streams src to dst, applying rewriter to every data row and
// extractor to every anon: comment encountered, honouring store's
// table-delete flags. delimiter is the single-byte COPY field separator.
func Run(src io.Reader, dst io.Writer, store *rules.Store, extractor *rules.Extractor, rewriter *rewrite.Rewriter, delimiter byte) error {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	w := bufio.NewWriter(dst)
	defer w.Flush()

	st := statePreamble
	var table, schema string
	var columns []string
	var suppressed bool

	sep := string(delimiter)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		switch st {
		case statePreamble, stateTail:
			if m := columnCommentRe.FindStringSubmatch(line); m != nil {
				schema, tableName, column, body := unquoteSchema(m[1]), unquote(m[2]), unquote(m[3]), unescapeCommentBody(m[4])
				extractor.ParseColumnComment(schema, tableName, column, body)
				if _, err := w.WriteString(line + "\n"); err != nil {
					return &perrors.IOError{Reason: "writing plain output", Err: err}
				}
				continue
			}
			if m := tableCommentRe.FindStringSubmatch(line); m != nil {
				schema, tableName, body := unquoteSchema(m[1]), unquote(m[2]), unescapeCommentBody(m[3])
				extractor.ParseTableComment(schema, tableName, body)
				if _, err := w.WriteString(line + "\n"); err != nil {
					return &perrors.IOError{Reason: "writing plain output", Err: err}
				}
				continue
			}
			if m := copyHeaderRe.FindStringSubmatch(line); m != nil {
				schema = unquoteSchema(m[1])
				table = unquote(m[2])
				columns = splitColumnList(m[3])
				suppressed = store.IsTableDeleted(schema, table)
				st = stateInCopy
				if suppressed {
					continue
				}
				if _, err := w.WriteString(line + "\n"); err != nil {
					return &perrors.IOError{Reason: "writing plain output", Err: err}
				}
				continue
			}
			if _, err := w.WriteString(line + "\n"); err != nil {
				return &perrors.IOError{Reason: "writing plain output", Err: err}
			}

		case stateInCopy:
			if line == `\.` {
				st = stateTail
				if suppressed {
					continue
				}
				if _, err := w.WriteString(line + "\n"); err != nil {
					return &perrors.IOError{Reason: "writing plain output", Err: err}
				}
				continue
			}
			if suppressed {
				continue
			}

			values := strings.Split(line, sep)
			if len(values) != len(columns) {
				return &perrors.TruncatedInputError{Location: fmt.Sprintf("line %d (%s.%s): expected %d columns, got %d", lineNo, schema, table, len(columns), len(values))}
			}

			row := rewrite.NewRow(schema, table, columns, values)
			if err := rewriter.RewriteRow(row); err != nil {
				return err
			}

			if _, err := w.WriteString(strings.Join(row.Values, sep) + "\n"); err != nil {
				return &perrors.IOError{Reason: "writing plain output", Err: err}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return &perrors.IOError{Reason: "reading plain input", Err: err}
	}
	if st == stateInCopy {
		return &perrors.TruncatedInputError{Location: fmt.Sprintf("stream ended mid-COPY for %s.%s", schema, table)}
	}
	return nil
}

// splitColumnList turns a COPY header's parenthesized column list into
// trimmed, unquoted column names.
func splitColumnList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = unquote(strings.TrimSpace(p))
	}
	return out
}

// unquote strips a single layer of double quotes pg_dump adds around
// identifiers that need them (mixed case, reserved words, punctuation).
func unquote(ident string) string {
	if len(ident) >= 2 && ident[0] == '"' && ident[len(ident)-1] == '"' {
		return strings.ReplaceAll(ident[1:len(ident)-1], `""`, `"`)
	}
	return ident
}

// unquoteSchema strips the trailing "." captured alongside an optional
// schema-qualifier group.
func unquoteSchema(withDot string) string {
	return unquote(strings.TrimSuffix(withDot, "."))
}

// unescapeCommentBody undoes the SQL string-literal escaping pg_dump
// applies to comment bodies ('' for a literal quote).
func unescapeCommentBody(body string) string {
	return strings.ReplaceAll(body, "''", "'")
}
