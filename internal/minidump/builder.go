package minidump

import (
	"bytes"
	"encoding/binary"
)

// Build serializes pieces into a minimal MDMP byte buffer containing a
// single Memory64List stream, including the pieces' raw bytes. It exists
// for tests that need a minidump without capturing a real process.
func Build(pieces []Piece) []byte {
	const headerSize = 32 // sizeof(header): 4+4+4+4+4+4+8
	const dirEntrySize = 12
	const listHeaderSize = 16
	const descriptorSize = 16

	streamDirRVA := uint32(headerSize)
	memListRVA := streamDirRVA + dirEntrySize
	bodiesRVA := memListRVA + listHeaderSize + uint32(len(pieces))*descriptorSize

	var listStream bytes.Buffer
	_ = binary.Write(&listStream, binary.LittleEndian, memory64ListHeader{
		NumberOfMemoryRanges: uint64(len(pieces)),
		BaseRVA:              uint64(bodiesRVA),
	})
	for _, p := range pieces {
		_ = binary.Write(&listStream, binary.LittleEndian, memoryDescriptor64{
			StartOfMemoryRange: p.Base,
			DataSize:           uint64(len(p.Bytes)),
		})
	}

	var bodies bytes.Buffer
	for _, p := range pieces {
		bodies.Write(p.Bytes)
	}

	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, header{
		Signature:          headerMagic,
		NumberOfStreams:    1,
		StreamDirectoryRVA: streamDirRVA,
	})
	_ = binary.Write(&buf, binary.LittleEndian, directoryEntry{
		StreamType: streamTypeMemory64List,
		DataSize:   uint32(listStream.Len()),
		RVA:        memListRVA,
	})
	buf.Write(listStream.Bytes())
	buf.Write(bodies.Bytes())

	return buf.Bytes()
}
