package pakarchive

import (
	"hash/fnv"
	"unicode/utf16"
)

// HashPath returns the 64-bit directory key for path: a FNV-1a hash over
// the path's UTF-16LE encoding.
//
// The real archive family's path hash is undocumented (spec.md §1 treats
// it as an external collaborator); this is the one function both the
// archive builder and the candidate prober call, so membership tests
// always agree with whatever produced the archive.
func HashPath(path string) uint64 {
	units := utf16.Encode([]rune(path))
	h := fnv.New64a()
	buf := make([]byte, 2*len(units))
	for i, u := range units {
		buf[2*i] = byte(u)
		buf[2*i+1] = byte(u >> 8)
	}
	_, _ = h.Write(buf)
	return h.Sum64()
}
