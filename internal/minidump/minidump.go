// Package minidump implements a minimal reader for the Microsoft minidump
// (MDMP) container format, exposing only what the recovery engine needs:
// the raw memory pieces recorded in a Memory64List stream.
package minidump

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrOpen wraps any failure to open or parse a minidump file, so callers
// can match it with errors.Is. The CLI does not inspect it: a dump that
// fails to open is logged and skipped.
var ErrOpen = errors.New("minidump: open failed")

const headerMagic uint32 = 0x504d444d // "MDMP" little-endian

const streamTypeMemory64List uint32 = 9

// Piece is one contiguous region of process memory recorded in the dump,
// with its virtual base address and raw bytes.
type Piece struct {
	Base  uint64
	Bytes []byte
}

// Dump is a parsed minidump: its memory pieces in stream order.
type Dump struct {
	Pieces []Piece
}

type header struct {
	Signature          uint32
	Version             uint32
	NumberOfStreams     uint32
	StreamDirectoryRVA  uint32
	CheckSum            uint32
	TimeDateStampOrPad  uint32
	Flags               uint64
}

type directoryEntry struct {
	StreamType uint32
	DataSize   uint32
	RVA        uint32
}

type memory64ListHeader struct {
	NumberOfMemoryRanges uint64
	BaseRVA              uint64
}

type memoryDescriptor64 struct {
	StartOfMemoryRange uint64
	DataSize           uint64
}

// Open reads and parses path as a minidump file.
func Open(path string) (*Dump, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: dump paths are supplied by the operator via CLI flags
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, path, err)
	}
	return d, nil
}

// Parse parses an in-memory minidump byte buffer. Exported separately from
// Open so tests can build dumps without touching disk.
func Parse(data []byte) (*Dump, error) {
	r := bytes.NewReader(data)

	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("minidump: reading header: %w", err)
	}
	if h.Signature != headerMagic {
		return nil, fmt.Errorf("minidump: bad signature %08x", h.Signature)
	}

	dir := make([]directoryEntry, h.NumberOfStreams)
	dirReader := io.NewSectionReader(bytes.NewReader(data), int64(h.StreamDirectoryRVA), int64(len(data))-int64(h.StreamDirectoryRVA))
	for i := range dir {
		if err := binary.Read(dirReader, binary.LittleEndian, &dir[i]); err != nil {
			return nil, fmt.Errorf("minidump: reading stream directory entry %d: %w", i, err)
		}
	}

	var pieces []Piece
	for _, entry := range dir {
		if entry.StreamType != streamTypeMemory64List {
			continue
		}
		streamPieces, err := parseMemory64List(data, entry)
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, streamPieces...)
	}

	return &Dump{Pieces: pieces}, nil
}

func parseMemory64List(data []byte, entry directoryEntry) ([]Piece, error) {
	if int64(entry.RVA)+int64(entry.DataSize) > int64(len(data)) {
		return nil, fmt.Errorf("minidump: Memory64List stream out of bounds")
	}
	sr := io.NewSectionReader(bytes.NewReader(data), int64(entry.RVA), int64(entry.DataSize))

	var listHeader memory64ListHeader
	if err := binary.Read(sr, binary.LittleEndian, &listHeader); err != nil {
		return nil, fmt.Errorf("minidump: reading Memory64List header: %w", err)
	}

	descriptors := make([]memoryDescriptor64, listHeader.NumberOfMemoryRanges)
	for i := range descriptors {
		if err := binary.Read(sr, binary.LittleEndian, &descriptors[i]); err != nil {
			return nil, fmt.Errorf("minidump: reading memory descriptor %d: %w", i, err)
		}
	}

	pieces := make([]Piece, 0, len(descriptors))
	rva := listHeader.BaseRVA
	for i, desc := range descriptors {
		start := int64(rva)
		end := start + int64(desc.DataSize)
		if start < 0 || end > int64(len(data)) {
			return nil, fmt.Errorf("minidump: memory range %d [%d:%d) out of bounds", i, start, end)
		}
		piece := Piece{
			Base:  desc.StartOfMemoryRange,
			Bytes: data[start:end],
		}
		pieces = append(pieces, piece)
		rva += desc.DataSize
	}
	return pieces, nil
}
