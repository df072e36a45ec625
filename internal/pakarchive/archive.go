// Package pakarchive implements the archive reader and hash function that
// spec.md §1 names as external collaborators to the recovery engine: a
// minimal PAK container with a flat hash-keyed entry table and
// zlib-compressed bodies, plus the UTF-16LE path hash used to probe it.
package pakarchive

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// magic identifies a reepath PAK container. Chosen to be distinct from the
// real archive family's magic bytes so the two are never confused on disk.
var magic = [4]byte{'R', 'P', 'A', 'K'}

const formatVersion uint32 = 1

// maxEntryBytes caps the decompressed size of a single entry, mirroring the
// zip-bomb guard the teacher repository applies to Git objects.
const maxEntryBytes = 512 * 1024 * 1024

// ErrOpen wraps any failure to open or parse an archive header or entry
// table, so callers can match it with errors.Is. The CLI does not inspect
// it: any archive-open failure aborts the run with exit code 1.
var ErrOpen = errors.New("pakarchive: open failed")

type entryLoc struct {
	offset           int64
	compressedSize   int64
	uncompressedSize int64
}

// Archive is a single opened PAK container: an immutable hash-keyed entry
// table plus on-demand access to each entry's decompressed bytes.
type Archive struct {
	path    string
	ra      io.ReaderAt
	closer  io.Closer
	readMu  sync.Mutex // serializes seek+read+decompress on ra
	entries map[uint64]entryLoc
	order   []uint64 // hash table order, i.e. on-disk entry order
}

// Open reads path's header and entry table into memory; entry bodies are
// decompressed lazily by ReadEntry.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path) //nolint:gosec // G304: archive paths are supplied by the operator via CLI flags
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, path, err)
	}
	a, err := openFromReaderAt(path, io.NewSectionReader(f, 0, info.Size()), f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return a, nil
}

func openFromReaderAt(path string, ra io.ReaderAt, closer io.Closer) (*Archive, error) {
	sr := io.NewSectionReader(ra, 0, 1<<62)

	var gotMagic [4]byte
	if _, err := io.ReadFull(sr, gotMagic[:]); err != nil {
		return nil, fmt.Errorf("%w: %s: reading magic: %w", ErrOpen, path, err)
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("%w: %s: not a reepath pak (bad magic)", ErrOpen, path)
	}

	var version, entryCount uint32
	if err := binary.Read(sr, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: %s: reading version: %w", ErrOpen, path, err)
	}
	if version != formatVersion {
		return nil, fmt.Errorf("%w: %s: unsupported version %d", ErrOpen, path, version)
	}
	if err := binary.Read(sr, binary.LittleEndian, &entryCount); err != nil {
		return nil, fmt.Errorf("%w: %s: reading entry count: %w", ErrOpen, path, err)
	}

	entries := make(map[uint64]entryLoc, entryCount)
	order := make([]uint64, 0, entryCount)
	for i := uint32(0); i < entryCount; i++ {
		var rec struct {
			Hash             uint64
			Offset           uint64
			CompressedSize   uint64
			UncompressedSize uint64
		}
		if err := binary.Read(sr, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("%w: %s: reading entry %d: %w", ErrOpen, path, i, err)
		}
		entries[rec.Hash] = entryLoc{
			offset:           int64(rec.Offset),
			compressedSize:   int64(rec.CompressedSize),
			uncompressedSize: int64(rec.UncompressedSize),
		}
		order = append(order, rec.Hash)
	}

	return &Archive{
		path:    path,
		ra:      ra,
		closer:  closer,
		entries: entries,
		order:   order,
	}, nil
}

// Path returns the filesystem path the archive was opened from, or "" for
// an in-memory archive built by NewFromEntries.
func (a *Archive) Path() string { return a.path }

// Contains reports whether hash is present in this archive's entry table.
func (a *Archive) Contains(hash uint64) bool {
	_, ok := a.entries[hash]
	return ok
}

// Hashes returns the archive's entry hashes in on-disk order.
func (a *Archive) Hashes() []uint64 { return a.order }

// Len returns the number of entries in the archive.
func (a *Archive) Len() int { return len(a.entries) }

// ReadEntry decompresses and returns the bytes stored under hash.
func (a *Archive) ReadEntry(hash uint64) ([]byte, error) {
	loc, ok := a.entries[hash]
	if !ok {
		return nil, fmt.Errorf("pakarchive: %s: no entry for hash %016x", a.path, hash)
	}

	a.readMu.Lock()
	defer a.readMu.Unlock()

	section := io.NewSectionReader(a.ra, loc.offset, loc.compressedSize)
	zr, err := zlib.NewReader(section)
	if err != nil {
		return nil, fmt.Errorf("pakarchive: %s: entry %016x: zlib: %w", a.path, hash, err)
	}
	defer func() { _ = zr.Close() }()

	limit := loc.uncompressedSize
	if limit <= 0 || limit > maxEntryBytes {
		limit = maxEntryBytes
	}
	var buf bytes.Buffer
	buf.Grow(int(loc.uncompressedSize))
	if _, err := io.Copy(&buf, io.LimitReader(zr, limit+1)); err != nil {
		return nil, fmt.Errorf("pakarchive: %s: entry %016x: decompress: %w", a.path, hash, err)
	}
	if int64(buf.Len()) > maxEntryBytes {
		return nil, fmt.Errorf("pakarchive: %s: entry %016x exceeds maximum entry size", a.path, hash)
	}
	return buf.Bytes(), nil
}

// Close releases any underlying file handle. Safe to call on an in-memory
// archive, where it is a no-op.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
