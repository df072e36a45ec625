package source

import "github.com/eigeen/reepath/internal/pakarchive"

// Entry is one archive entry delivered to the driver: its hash and
// decompressed bytes.
type Entry struct {
	Hash  uint64
	Bytes []byte
}

// CanonicalEntries returns, for one archive within col, the hashes that
// archive canonically owns under the collection's last-wins overlay rule
// (spec.md §3/§9) — only those hashes are scanned from this archive, so
// an entry sharing a hash with a later archive is scanned exactly once,
// from its canonical owner.
func CanonicalEntries(col *pakarchive.Collection, archive *pakarchive.Archive) []uint64 {
	var out []uint64
	for _, h := range archive.Hashes() {
		if owner, ok := col.CanonicalArchive(h); ok && owner == archive {
			out = append(out, h)
		}
	}
	return out
}

// ReadEntries reads the decompressed bytes for each of hashes from
// archive, skipping (not failing the batch on) any entry that fails to
// decompress — spec.md §7's EntryReadError is per-entry, not fatal to the
// whole run when continue_on_error is set.
func ReadEntries(archive *pakarchive.Archive, hashes []uint64, onError func(hash uint64, err error)) []Entry {
	entries := make([]Entry, 0, len(hashes))
	for _, h := range hashes {
		b, err := archive.ReadEntry(h)
		if err != nil {
			if onError != nil {
				onError(h, err)
			}
			continue
		}
		entries = append(entries, Entry{Hash: h, Bytes: b})
	}
	return entries
}
