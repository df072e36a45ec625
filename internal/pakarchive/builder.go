package pakarchive

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
)

// Build writes entries (path -> raw contents) to w as a reepath PAK
// container, hashing each path with HashPath. Paths are written in
// lexical order so the resulting file is reproducible.
func Build(w io.Writer, entries map[string][]byte) error {
	paths := sortedPaths(entries)

	// Bodies follow the magic, version, entry count and entry table, so
	// each record's offset is absolute within the written file.
	bodiesStart := uint64(len(magic)) + 4 + 4 + uint64(len(paths))*uint64(binary.Size(entryRecord{}))

	var bodies bytes.Buffer
	records := make([]entryRecord, 0, len(paths))
	for _, p := range paths {
		offset := bodiesStart + uint64(bodies.Len())

		var compressed bytes.Buffer
		zw := zlib.NewWriter(&compressed)
		if _, err := zw.Write(entries[p]); err != nil {
			return fmt.Errorf("pakarchive: build: compressing %q: %w", p, err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("pakarchive: build: compressing %q: %w", p, err)
		}

		if _, err := bodies.Write(compressed.Bytes()); err != nil {
			return fmt.Errorf("pakarchive: build: writing %q: %w", p, err)
		}
		records = append(records, entryRecord{
			Hash:             HashPath(p),
			Offset:           offset,
			CompressedSize:   uint64(compressed.Len()),
			UncompressedSize: uint64(len(entries[p])),
		})
	}

	if _, err := w.Write(magic[:]); err != nil {
		return fmt.Errorf("pakarchive: build: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, formatVersion); err != nil {
		return fmt.Errorf("pakarchive: build: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(records))); err != nil {
		return fmt.Errorf("pakarchive: build: %w", err)
	}
	for _, rec := range records {
		if err := binary.Write(w, binary.LittleEndian, rec); err != nil {
			return fmt.Errorf("pakarchive: build: writing entry table: %w", err)
		}
	}
	if _, err := w.Write(bodies.Bytes()); err != nil {
		return fmt.Errorf("pakarchive: build: writing bodies: %w", err)
	}
	return nil
}

// bytesReaderAt adapts a []byte to io.ReaderAt for in-memory archives.
type bytesReaderAt struct {
	b []byte
}

func (r bytesReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(r.b)) {
		if off == int64(len(r.b)) {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("pakarchive: read at invalid offset %d", off)
	}
	n := copy(p, r.b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// NewFromEntries builds an in-memory Archive directly from a path->bytes
// map, without touching disk. It exists for tests and for callers that
// already hold archive contents in memory.
func NewFromEntries(entries map[string][]byte) (*Archive, error) {
	var buf bytes.Buffer
	if err := Build(&buf, entries); err != nil {
		return nil, err
	}
	return openFromReaderAt("", bytesReaderAt{b: buf.Bytes()}, nil)
}
