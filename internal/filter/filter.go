// Package filter implements the magic-byte skip filter (C8): a cheap
// advisory check that short-circuits scanning of buffers whose header
// matches a known-opaque binary format (spec.md §4.7).
package filter

import "encoding/binary"

// Sentinels compared against the first 8 bytes of a candidate buffer.
const (
	magicTEX  uint32 = 0x584554
	magicBKHD uint32 = 0x44484B42
	magicAKPK uint32 = 0x4B504B41
	magicGMSG uint32 = 0x47534D47
)

// ShouldSkip reports whether buf is a known-opaque binary format that is
// unlikely to carry plaintext paths. A buffer shorter than 8 bytes is
// declared skippable (there is nothing to scan for a seed pair anyway).
// The filter is advisory: false is always a safe answer.
func ShouldSkip(buf []byte) bool {
	if len(buf) < 8 {
		return true
	}
	low := binary.LittleEndian.Uint32(buf[0:4])
	high := binary.LittleEndian.Uint32(buf[4:8])
	switch low {
	case magicTEX, magicBKHD, magicAKPK:
		return true
	}
	return high == magicGMSG
}
