// SPDX-License-Identifier: Apache-2.0

// Package custom is the Custom Parser/Writer for the binary archive
// produced by `pg_dump -Fc`: a fixed header, a table of contents, and a
// sequence of length-prefixed data/blob blocks. There is no single
// reference implementation this is grounded on in the retrieved corpus;
// the wire layout below follows the external interface description this
// module is built against, and the re-chunking/recompression approach
// mirrors the streaming, one-block-at-a-time style the Plain
// Parser/Writer already uses for the text format.
package custom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/mod/semver"

	"github.com/pgredact/pgredact/internal/perrors"
	"github.com/pgredact/pgredact/internal/rewrite"
	"github.com/pgredact/pgredact/internal/rules"
)

// Magic is the five-byte signature every custom-format archive begins
// with.
const Magic = "PGDMP"

const (
	blockTypeEOF  = 0
	blockTypeData = 1
	blockTypeBlob = 3
)

const chunkSize = 32 * 1024

var (
	copyStmtRe      = regexp.MustCompile(`(?s)^COPY\s+((?:[\w"]+)\.)?([\w"]+)\s*\(([^)]*)\)\s+FROM\s+stdin;`)
	columnCommentRe = regexp.MustCompile(`(?s)^COMMENT ON COLUMN\s+((?:[\w"]+)\.)?([\w"]+)\.([\w"]+)\s+IS\s+'(.*)';\s*$`)
	tableCommentRe  = regexp.MustCompile(`(?s)^COMMENT ON TABLE\s+((?:[\w"]+)\.)?([\w"]+)\s+IS\s+'(.*)';\s*$`)
)

// Header is the fixed-layout preamble of a custom-format archive.
type Header struct {
	VMaj, VMin, VRev int
	IntSize          int
	OffSize          int
	Format           int
	Compression      int

	Sec, Min, Hour, MDay, Mon, Year, IsDST int

	DBName, ServerVersion, DumpVersion string
}

// versionString renders the archive format version as a semver string
// (vrev stands in for patch) so version-gated fields can be compared
// with golang.org/x/mod/semver instead of hand-rolled integer math.
func (h Header) versionString() string {
	return fmt.Sprintf("v%d.%d.%d", h.VMaj, h.VMin, h.VRev)
}

func (h Header) hasTableAM() bool { return semver.Compare(h.versionString(), "v1.14.0") >= 0 }
func (h Header) hasRelKind() bool { return semver.Compare(h.versionString(), "v1.16.0") >= 0 }

func (h Header) checkSupported() error {
	v := h.versionString()
	if semver.Compare(v, "v1.12.0") < 0 || semver.Compare(v, "v1.17.0") >= 0 {
		return &perrors.UnsupportedVersionError{Major: h.VMaj, Minor: h.VMin, Rev: h.VRev}
	}
	return nil
}

// TOCEntry is one table-of-contents record. Fields gated by archive
// version (TableAM, RelKind) are left zero-valued when the archive
// predates them, and are neither read nor written in that case.
type TOCEntry struct {
	DumpID       int64
	HadDumper    int64
	TableOID     string
	OID          string
	Tag          string
	Desc         string
	Section      int64
	Defn         string
	DropStmt     string
	CopyStmt     string
	Namespace    string
	Tablespace   string
	TableAM      string
	RelKind      string
	Owner        string
	WithOids     string
	Dependencies []string
	OffsetKnown  byte
	Offset       int64
}

// Run streams a custom-format archive from src to dst: the header and
// TOC are re-emitted byte-for-byte, anon: comments are handed to
// extractor as they're encountered in the TOC (which always precedes
// the data blocks), and each TABLE DATA block of a table with at least
// one column rule is decompressed (if needed), rewritten row by row, and
// re-chunked. A delete-flagged table's payload collapses to a single
// empty chunk; a table with no column rule, or whose copyStmt cannot be
// parsed, has its chunks copied through unchanged.
func Run(src io.Reader, dst io.Writer, store *rules.Store, extractor *rules.Extractor, rewriter *rewrite.Rewriter, delimiter byte) error {
	r := &reader{r: src}
	w := &writer{w: dst}

	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r.r, magic); err != nil {
		return wrapReadErr("archive magic", err)
	}
	if string(magic) != Magic {
		return &perrors.UnsupportedFormatError{Reason: fmt.Sprintf("bad magic %q, expected %q", magic, Magic)}
	}
	if _, err := w.w.Write(magic); err != nil {
		return &perrors.IOError{Reason: "writing archive magic", Err: err}
	}

	h, err := readHeader(r)
	if err != nil {
		return err
	}
	if err := h.checkSupported(); err != nil {
		return err
	}
	if err := writeHeader(w, h); err != nil {
		return err
	}

	entries, err := readTOC(r, h)
	if err != nil {
		return err
	}
	byID := make(map[int64]*TOCEntry, len(entries))
	for i := range entries {
		extractComment(&entries[i], extractor)
		byID[entries[i].DumpID] = &entries[i]
	}
	if err := writeTOC(w, h, entries); err != nil {
		return err
	}

	for {
		blockType, err := r.readByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return wrapReadErr("block type", err)
		}
		if blockType == blockTypeEOF {
			if err := w.writeByte(blockTypeEOF); err != nil {
				return &perrors.IOError{Reason: "writing block terminator", Err: err}
			}
			break
		}

		dumpID, err := r.readInt(h.IntSize)
		if err != nil {
			return wrapReadErr("block dump id", err)
		}

		if err := w.writeByte(blockType); err != nil {
			return &perrors.IOError{Reason: "writing block type", Err: err}
		}
		if err := w.writeInt(h.IntSize, dumpID); err != nil {
			return &perrors.IOError{Reason: "writing block dump id", Err: err}
		}

		entry := byID[dumpID]
		if blockType == blockTypeBlob || entry == nil || entry.Desc != "TABLE DATA" {
			if err := copyChunksVerbatim(r, w, h.IntSize); err != nil {
				return err
			}
			continue
		}

		if err := rewriteDataBlock(r, w, h, entry, store, rewriter, delimiter); err != nil {
			return err
		}
	}

	return nil
}

// copyChunksVerbatim re-emits a block's chunk sequence byte-for-byte,
// for blocks this implementation doesn't rewrite (blobs, data blocks not
// describing table data, and table data with no column rule or an
// unparseable copyStmt).
func copyChunksVerbatim(r *reader, w *writer, intSize int) error {
	for {
		n, err := r.readInt(intSize)
		if err != nil {
			return wrapReadErr("chunk length", err)
		}
		if err := w.writeInt(intSize, n); err != nil {
			return &perrors.IOError{Reason: "writing chunk length", Err: err}
		}
		if n == 0 {
			return nil
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r.r, buf); err != nil {
			return wrapReadErr("chunk data", err)
		}
		if _, err := w.w.Write(buf); err != nil {
			return &perrors.IOError{Reason: "writing chunk data", Err: err}
		}
	}
}

// rewriteDataBlock consumes the chunked COPY payload for a TABLE DATA
// entry, rewrites its rows (or discards them entirely for a
// delete-flagged table), and re-chunks the result.
func rewriteDataBlock(r *reader, w *writer, h *Header, entry *TOCEntry, store *rules.Store, rewriter *rewrite.Rewriter, delimiter byte) error {
	schema, table, columns, ok := parseCopyStmt(entry.CopyStmt)
	if !ok {
		// Can't identify the table: pass the chunk sequence through
		// byte-for-byte rather than buffering it.
		return copyChunksVerbatim(r, w, h.IntSize)
	}

	if store.IsTableDeleted(schema, table) {
		if _, err := readAllChunks(r, h.IntSize); err != nil {
			return err
		}
		return writeChunked(w, h.IntSize, nil)
	}

	if !store.HasAnyRuleFor(schema, table) {
		// No column here carries a rule: re-emit the original chunk
		// sequence untouched instead of decompressing, rewriting a
		// no-op, and recompressing. Recompressing with klauspost/compress
		// would not reproduce pg_dump's original compressed bytes, and
		// re-chunking at chunkSize would not reproduce its original
		// chunk boundaries, so either would break byte-identical
		// pass-through for a table nothing here touches.
		return copyChunksVerbatim(r, w, h.IntSize)
	}

	raw, err := readAllChunks(r, h.IntSize)
	if err != nil {
		return err
	}

	payload := raw
	if h.Compression != 0 {
		payload, err = decompress(raw)
		if err != nil {
			return &perrors.IOError{Reason: "decompressing data block", Err: err}
		}
	}

	rewritten, err := rewriteCopyPayload(payload, schema, table, columns, rewriter, delimiter)
	if err != nil {
		return err
	}

	if h.Compression != 0 {
		rewritten, err = compress(rewritten)
		if err != nil {
			return &perrors.IOError{Reason: "compressing data block", Err: err}
		}
	}

	return writeChunked(w, h.IntSize, rewritten)
}

// readAllChunks concatenates every chunk of a block's payload into one
// buffer, consuming up to and including the terminating zero-length
// chunk.
func readAllChunks(r *reader, intSize int) ([]byte, error) {
	var buf bytes.Buffer
	for {
		n, err := r.readInt(intSize)
		if err != nil {
			return nil, wrapReadErr("chunk length", err)
		}
		if n == 0 {
			return buf.Bytes(), nil
		}
		chunk := make([]byte, n)
		if _, err := io.ReadFull(r.r, chunk); err != nil {
			return nil, wrapReadErr("chunk data", err)
		}
		buf.Write(chunk)
	}
}

// wrapReadErr classifies a read failure as TruncatedInputError when the
// stream ended mid-structure (io.EOF or io.ErrUnexpectedEOF), and as a
// generic IOError otherwise, so a cut-off -Fc archive reports the same
// exit code the Plain Parser/Writer reports for a cut-off COPY.
func wrapReadErr(location string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &perrors.TruncatedInputError{Location: location}
	}
	return &perrors.IOError{Reason: location, Err: err}
}

// writeChunked emits data as a sequence of chunkSize-bounded
// length-prefixed chunks terminated by a zero-length chunk. An empty
// data slice writes just the terminator, the shape a delete-flagged
// table's payload collapses to.
func writeChunked(w *writer, intSize int, data []byte) error {
	for len(data) > 0 {
		n := len(data)
		if n > chunkSize {
			n = chunkSize
		}
		if err := w.writeInt(intSize, int64(n)); err != nil {
			return &perrors.IOError{Reason: "writing chunk length", Err: err}
		}
		if _, err := w.w.Write(data[:n]); err != nil {
			return &perrors.IOError{Reason: "writing chunk data", Err: err}
		}
		data = data[n:]
	}
	return w.writeInt(intSize, 0)
}

func decompress(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// rewriteCopyPayload splits decompressed COPY text into rows, applies
// rewriter to each, and rejoins. A trailing "\." terminator line, if
// present in the payload (some archives embed it), is preserved as-is.
func rewriteCopyPayload(payload []byte, schema, table string, columns []string, rewriter *rewrite.Rewriter, delimiter byte) ([]byte, error) {
	sep := string(delimiter)
	lines := strings.Split(strings.TrimSuffix(string(payload), "\n"), "\n")

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" || line == `\.` {
			out = append(out, line)
			continue
		}
		values := strings.Split(line, sep)
		if len(values) != len(columns) {
			return nil, &perrors.TruncatedInputError{Location: fmt.Sprintf("%s.%s: expected %d columns, got %d", schema, table, len(columns), len(values))}
		}
		row := rewrite.NewRow(schema, table, columns, values)
		if err := rewriter.RewriteRow(row); err != nil {
			return nil, err
		}
		out = append(out, strings.Join(row.Values, sep))
	}

	return []byte(strings.Join(out, "\n") + "\n"), nil
}

// parseCopyStmt extracts schema, table, and column list from a TOC
// entry's copyStmt text.
func parseCopyStmt(stmt string) (schema, table string, columns []string, ok bool) {
	m := copyStmtRe.FindStringSubmatch(stmt)
	if m == nil {
		return "", "", nil, false
	}
	schema = unquoteSchema(m[1])
	table = unquote(m[2])
	parts := strings.Split(m[3], ",")
	columns = make([]string, len(parts))
	for i, p := range parts {
		columns[i] = unquote(strings.TrimSpace(p))
	}
	return schema, table, columns, true
}

// extractComment hands a COMMENT-descriptor TOC entry's definition text
// to extractor, the same way the Plain Parser hands over a COMMENT ON
// line.
func extractComment(entry *TOCEntry, extractor *rules.Extractor) {
	if entry.Desc != "COMMENT" {
		return
	}
	if m := columnCommentRe.FindStringSubmatch(entry.Defn); m != nil {
		extractor.ParseColumnComment(unquoteSchema(m[1]), unquote(m[2]), unquote(m[3]), unescapeCommentBody(m[4]))
		return
	}
	if m := tableCommentRe.FindStringSubmatch(entry.Defn); m != nil {
		extractor.ParseTableComment(unquoteSchema(m[1]), unquote(m[2]), unescapeCommentBody(m[3]))
	}
}

func unquote(ident string) string {
	if len(ident) >= 2 && ident[0] == '"' && ident[len(ident)-1] == '"' {
		return strings.ReplaceAll(ident[1:len(ident)-1], `""`, `"`)
	}
	return ident
}

func unquoteSchema(withDot string) string {
	return unquote(strings.TrimSuffix(withDot, "."))
}

func unescapeCommentBody(body string) string {
	return strings.ReplaceAll(body, "''", "'")
}
