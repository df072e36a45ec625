// Package source implements the source adapters (C9): merging contiguous
// minidump memory pieces into blocks, and iterating archive entries
// yielding (hash, decompressed bytes), per spec.md §4.8.
package source

import (
	"sort"

	"github.com/eigeen/reepath/internal/minidump"
)

// Block is one logical, contiguous memory region ready for scanning: one
// or more adjacent minidump pieces merged together.
type Block struct {
	Base  uint64
	Bytes []byte
}

// Blocks sorts a dump's pieces by base address and coalesces adjacent
// ones (prev.base+len(prev.bytes) == next.base) into single blocks,
// copying only where a merge actually occurs (spec.md §9's copy-on-
// coalesce discipline — non-adjacent pieces stay zero-copy).
func Blocks(dump *minidump.Dump) []Block {
	pieces := append([]minidump.Piece(nil), dump.Pieces...)
	sort.Slice(pieces, func(i, j int) bool { return pieces[i].Base < pieces[j].Base })

	var blocks []Block
	owned := false // whether the in-progress block's Bytes is a private, growable copy
	for _, p := range pieces {
		if len(blocks) > 0 {
			last := &blocks[len(blocks)-1]
			if last.Base+uint64(len(last.Bytes)) == p.Base {
				if !owned {
					last.Bytes = append([]byte(nil), last.Bytes...)
					owned = true
				}
				last.Bytes = append(last.Bytes, p.Bytes...)
				continue
			}
		}
		blocks = append(blocks, Block{Base: p.Base, Bytes: p.Bytes})
		owned = false
	}
	return blocks
}
