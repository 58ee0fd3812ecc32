// SPDX-License-Identifier: Apache-2.0

package custom

import "github.com/pgredact/pgredact/internal/perrors"

func readHeader(r *reader) (*Header, error) {
	h := &Header{}

	vmaj, err := r.readByte()
	if err != nil {
		return nil, wrapReadErr("format major version", err)
	}
	vmin, err := r.readByte()
	if err != nil {
		return nil, wrapReadErr("format minor version", err)
	}
	vrev, err := r.readByte()
	if err != nil {
		return nil, wrapReadErr("format revision", err)
	}
	h.VMaj, h.VMin, h.VRev = int(vmaj), int(vmin), int(vrev)
	if err := h.checkSupported(); err != nil {
		return nil, err
	}

	intSize, err := r.readByte()
	if err != nil {
		return nil, wrapReadErr("int size", err)
	}
	h.IntSize = int(intSize)

	offSize, err := r.readByte()
	if err != nil {
		return nil, wrapReadErr("offset size", err)
	}
	h.OffSize = int(offSize)

	format, err := r.readByte()
	if err != nil {
		return nil, wrapReadErr("archive format indicator", err)
	}
	h.Format = int(format)

	compression, err := r.readByte()
	if err != nil {
		return nil, wrapReadErr("compression method", err)
	}
	h.Compression = int(compression)

	fields := []*int{&h.Sec, &h.Min, &h.Hour, &h.MDay, &h.Mon, &h.Year, &h.IsDST}
	for _, f := range fields {
		v, err := r.readInt(h.IntSize)
		if err != nil {
			return nil, wrapReadErr("timestamp field", err)
		}
		*f = int(v)
	}

	h.DBName, err = r.readString(h.IntSize)
	if err != nil {
		return nil, wrapReadErr("dump database name", err)
	}
	h.ServerVersion, err = r.readString(h.IntSize)
	if err != nil {
		return nil, wrapReadErr("server version", err)
	}
	h.DumpVersion, err = r.readString(h.IntSize)
	if err != nil {
		return nil, wrapReadErr("pg_dump version", err)
	}

	return h, nil
}

func writeHeader(w *writer, h *Header) error {
	for _, b := range []byte{byte(h.VMaj), byte(h.VMin), byte(h.VRev), byte(h.IntSize), byte(h.OffSize), byte(h.Format), byte(h.Compression)} {
		if err := w.writeByte(b); err != nil {
			return &perrors.IOError{Reason: "writing header", Err: err}
		}
	}

	for _, v := range []int{h.Sec, h.Min, h.Hour, h.MDay, h.Mon, h.Year, h.IsDST} {
		if err := w.writeInt(h.IntSize, int64(v)); err != nil {
			return &perrors.IOError{Reason: "writing timestamp field", Err: err}
		}
	}

	for _, s := range []string{h.DBName, h.ServerVersion, h.DumpVersion} {
		if err := w.writeString(h.IntSize, s); err != nil {
			return &perrors.IOError{Reason: "writing header string", Err: err}
		}
	}

	return nil
}

func readTOC(r *reader, h *Header) ([]TOCEntry, error) {
	count, err := r.readInt(h.IntSize)
	if err != nil {
		return nil, wrapReadErr("TOC entry count", err)
	}

	entries := make([]TOCEntry, count)
	for i := range entries {
		e := &entries[i]

		var err error
		if e.DumpID, err = r.readInt(h.IntSize); err != nil {
			return nil, wrapReadErr("TOC dump id", err)
		}
		if e.HadDumper, err = r.readInt(h.IntSize); err != nil {
			return nil, wrapReadErr("TOC had-dumper flag", err)
		}
		strs := []*string{&e.TableOID, &e.OID, &e.Tag, &e.Desc}
		for _, sp := range strs {
			if *sp, err = r.readString(h.IntSize); err != nil {
				return nil, wrapReadErr("TOC string field", err)
			}
		}
		if e.Section, err = r.readInt(h.IntSize); err != nil {
			return nil, wrapReadErr("TOC section", err)
		}
		strs = []*string{&e.Defn, &e.DropStmt, &e.CopyStmt, &e.Namespace, &e.Tablespace}
		for _, sp := range strs {
			if *sp, err = r.readString(h.IntSize); err != nil {
				return nil, wrapReadErr("TOC string field", err)
			}
		}
		if h.hasTableAM() {
			if e.TableAM, err = r.readString(h.IntSize); err != nil {
				return nil, wrapReadErr("TOC table access method", err)
			}
		}
		if h.hasRelKind() {
			if e.RelKind, err = r.readString(h.IntSize); err != nil {
				return nil, wrapReadErr("TOC relkind", err)
			}
		}
		strs = []*string{&e.Owner, &e.WithOids}
		for _, sp := range strs {
			if *sp, err = r.readString(h.IntSize); err != nil {
				return nil, wrapReadErr("TOC string field", err)
			}
		}

		for {
			dep, err := r.readString(h.IntSize)
			if err != nil {
				return nil, wrapReadErr("TOC dependency list", err)
			}
			if dep == "" {
				break
			}
			e.Dependencies = append(e.Dependencies, dep)
		}

		if e.OffsetKnown, err = r.readByte(); err != nil {
			return nil, wrapReadErr("TOC offset flag", err)
		}
		if e.Offset, err = r.readInt(h.OffSize); err != nil {
			return nil, wrapReadErr("TOC offset", err)
		}
	}

	return entries, nil
}

func writeTOC(w *writer, h *Header, entries []TOCEntry) error {
	if err := w.writeInt(h.IntSize, int64(len(entries))); err != nil {
		return &perrors.IOError{Reason: "writing TOC entry count", Err: err}
	}

	for _, e := range entries {
		if err := w.writeInt(h.IntSize, e.DumpID); err != nil {
			return &perrors.IOError{Reason: "writing TOC dump id", Err: err}
		}
		if err := w.writeInt(h.IntSize, e.HadDumper); err != nil {
			return &perrors.IOError{Reason: "writing TOC had-dumper flag", Err: err}
		}
		for _, s := range []string{e.TableOID, e.OID, e.Tag, e.Desc} {
			if err := w.writeString(h.IntSize, s); err != nil {
				return &perrors.IOError{Reason: "writing TOC string field", Err: err}
			}
		}
		if err := w.writeInt(h.IntSize, e.Section); err != nil {
			return &perrors.IOError{Reason: "writing TOC section", Err: err}
		}
		for _, s := range []string{e.Defn, e.DropStmt, e.CopyStmt, e.Namespace, e.Tablespace} {
			if err := w.writeString(h.IntSize, s); err != nil {
				return &perrors.IOError{Reason: "writing TOC string field", Err: err}
			}
		}
		if h.hasTableAM() {
			if err := w.writeString(h.IntSize, e.TableAM); err != nil {
				return &perrors.IOError{Reason: "writing TOC table access method", Err: err}
			}
		}
		if h.hasRelKind() {
			if err := w.writeString(h.IntSize, e.RelKind); err != nil {
				return &perrors.IOError{Reason: "writing TOC relkind", Err: err}
			}
		}
		for _, s := range []string{e.Owner, e.WithOids} {
			if err := w.writeString(h.IntSize, s); err != nil {
				return &perrors.IOError{Reason: "writing TOC string field", Err: err}
			}
		}
		for _, dep := range e.Dependencies {
			if err := w.writeString(h.IntSize, dep); err != nil {
				return &perrors.IOError{Reason: "writing TOC dependency", Err: err}
			}
		}
		if err := w.writeString(h.IntSize, ""); err != nil {
			return &perrors.IOError{Reason: "writing TOC dependency terminator", Err: err}
		}
		if err := w.writeByte(e.OffsetKnown); err != nil {
			return &perrors.IOError{Reason: "writing TOC offset flag", Err: err}
		}
		if err := w.writeInt(h.OffSize, e.Offset); err != nil {
			return &perrors.IOError{Reason: "writing TOC offset", Err: err}
		}
	}

	return nil
}
