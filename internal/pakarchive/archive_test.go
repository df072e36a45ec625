package pakarchive

import (
	"bytes"
	"testing"
)

func TestBuildAndReadRoundTrip(t *testing.T) {
	entries := map[string][]byte{
		"natives/stm/player/equip/wp1234.mesh.123": []byte("mesh payload"),
		"streaming/nsw/sound/bank.bnk.4":            []byte("bank payload"),
	}

	a, err := NewFromEntries(entries)
	if err != nil {
		t.Fatalf("NewFromEntries: %v", err)
	}
	defer func() { _ = a.Close() }()

	if got, want := a.Len(), len(entries); got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}

	for path, want := range entries {
		h := HashPath(path)
		if !a.Contains(h) {
			t.Fatalf("Contains(%016x) = false for %q", h, path)
		}
		got, err := a.ReadEntry(h)
		if err != nil {
			t.Fatalf("ReadEntry(%q): %v", path, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("ReadEntry(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestContainsUnknownHash(t *testing.T) {
	a, err := NewFromEntries(map[string][]byte{"a/b/c.tex.1": []byte("x")})
	if err != nil {
		t.Fatalf("NewFromEntries: %v", err)
	}
	defer func() { _ = a.Close() }()

	if a.Contains(HashPath("a/b/other.tex.1")) {
		t.Fatal("Contains reported true for a hash that was never inserted")
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	_, err := openFromReaderAt("bogus", bytesReaderAt{b: []byte("not a pak at all, too short")}, nil)
	if err == nil {
		t.Fatal("expected an error for a non-pak byte stream")
	}
}

func TestCollectionLastWinsOverlay(t *testing.T) {
	path := "natives/stm/weapon/sword.mesh.1"
	h := HashPath(path)

	older, err := NewFromEntries(map[string][]byte{path: []byte("old body")})
	if err != nil {
		t.Fatalf("NewFromEntries(older): %v", err)
	}
	newer, err := NewFromEntries(map[string][]byte{path: []byte("new body")})
	if err != nil {
		t.Fatalf("NewFromEntries(newer): %v", err)
	}

	col := NewCollection(older, newer)
	if !col.Contains(h) {
		t.Fatal("Collection.Contains reported false for a hash present in both archives")
	}

	owner, ok := col.CanonicalArchive(h)
	if !ok {
		t.Fatal("CanonicalArchive reported no owner")
	}
	if owner != newer {
		t.Fatal("CanonicalArchive did not return the last-loaded archive")
	}

	if got, want := col.EntryCount(), 1; got != want {
		t.Fatalf("EntryCount() = %d, want %d (same hash in both archives)", got, want)
	}
}

func TestHashPathDeterministic(t *testing.T) {
	a := HashPath("natives/stm/player/equip/wp1234.mesh.123")
	b := HashPath("natives/stm/player/equip/wp1234.mesh.123")
	if a != b {
		t.Fatalf("HashPath is not deterministic: %d != %d", a, b)
	}
	if a == HashPath("natives/stm/player/equip/wp1234.mesh.124") {
		t.Fatal("HashPath collided on a one-character difference")
	}
}
