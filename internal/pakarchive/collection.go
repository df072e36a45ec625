package pakarchive

import "sort"

// Collection aggregates multiple opened archives under the last-wins
// overlay rule: when the same hash appears in more than one archive, the
// archive opened last is treated as canonical for scanning ownership
// (spec.md §3/§9), while Contains reports membership across the union of
// all archives regardless of which one is canonical.
type Collection struct {
	archives  []*Archive
	hashIndex map[uint64]int // hash -> index into archives of its canonical (last) owner
}

// NewCollection builds a Collection from already-opened archives, applied
// in the given order; later archives win ties for canonical ownership.
func NewCollection(archives ...*Archive) *Collection {
	c := &Collection{
		archives:  archives,
		hashIndex: make(map[uint64]int),
	}
	for i, a := range archives {
		for _, h := range a.Hashes() {
			c.hashIndex[h] = i
		}
	}
	return c
}

// Contains reports whether hash exists in any archive in the collection.
func (c *Collection) Contains(hash uint64) bool {
	_, ok := c.hashIndex[hash]
	return ok
}

// CanonicalArchive returns the archive that owns hash for scanning
// purposes (the last archive loaded that contains it), matching
// should_scan_hash_in_pak's last-wins semantics.
func (c *Collection) CanonicalArchive(hash uint64) (*Archive, bool) {
	idx, ok := c.hashIndex[hash]
	if !ok {
		return nil, false
	}
	return c.archives[idx], true
}

// Archives returns the collection's archives in load order.
func (c *Collection) Archives() []*Archive { return c.archives }

// EntryCount returns the number of distinct hashes across all archives.
func (c *Collection) EntryCount() int { return len(c.hashIndex) }

// Close closes every archive in the collection, returning the first error
// encountered (if any) after attempting to close them all.
func (c *Collection) Close() error {
	var first error
	for _, a := range c.archives {
		if err := a.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// entryRecord is the literal on-disk layout of one entry-table row.
type entryRecord struct {
	Hash             uint64
	Offset           uint64
	CompressedSize   uint64
	UncompressedSize uint64
}

// sortedPaths returns paths sorted lexically, giving Build a deterministic
// on-disk entry order independent of map iteration order.
func sortedPaths(entries map[string][]byte) []string {
	paths := make([]string, 0, len(entries))
	for p := range entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
