package resolver

import (
	"testing"

	"github.com/eigeen/reepath/internal/config"
	"github.com/eigeen/reepath/internal/pakarchive"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Prefixes = []string{"natives/STM/"}
	return cfg
}

func archiveWith(t *testing.T, paths ...string) *pakarchive.Archive {
	t.Helper()
	entries := make(map[string][]byte, len(paths))
	for _, p := range paths {
		entries[p] = []byte("x")
	}
	a, err := pakarchive.NewFromEntries(entries)
	if err != nil {
		t.Fatalf("NewFromEntries: %v", err)
	}
	return a
}

func TestResolveScenario1BasicHit(t *testing.T) {
	cfg := testConfig()
	a := archiveWith(t, "natives/STM/a/b.tex.241106027")

	matches, ok := Resolve(a, cfg, "a/b.tex", "tex")
	if !ok {
		t.Fatal("Resolve reported no match")
	}
	if len(matches) != 1 || matches[0] != "natives/STM/a/b.tex.241106027" {
		t.Fatalf("matches = %v, want exactly the archived full path", matches)
	}
}

func TestResolveScenario2BaseThenLanguage(t *testing.T) {
	cfg := testConfig()
	cfg.SuffixVersions = map[string][]uint32{"user": {3}}
	a := archiveWith(t,
		"natives/STM/x/y.user.3",
		"natives/STM/x/y.user.3.En",
	)

	matches, ok := Resolve(a, cfg, "x/y.user", "user")
	if !ok {
		t.Fatal("Resolve reported no match")
	}
	want := []string{"natives/STM/x/y.user.3", "natives/STM/x/y.user.3.En"}
	if len(matches) != len(want) {
		t.Fatalf("matches = %v, want %v", matches, want)
	}
	for i := range want {
		if matches[i] != want[i] {
			t.Fatalf("matches = %v, want %v", matches, want)
		}
	}
}

func TestResolveScenario3StreamingOverlayImmediatelyAfter(t *testing.T) {
	cfg := testConfig()
	cfg.SuffixVersions = map[string][]uint32{"tex": {241106027}}
	a := archiveWith(t,
		"natives/STM/x/y.tex.241106027",
		"natives/STM/streaming/x/y.tex.241106027",
	)

	matches, ok := Resolve(a, cfg, "x/y.tex", "tex")
	if !ok {
		t.Fatal("Resolve reported no match")
	}
	want := []string{
		"natives/STM/x/y.tex.241106027",
		"natives/STM/streaming/x/y.tex.241106027",
	}
	if len(matches) != len(want) {
		t.Fatalf("matches = %v, want %v", matches, want)
	}
	for i := range want {
		if matches[i] != want[i] {
			t.Fatalf("matches = %v, want %v", matches, want)
		}
	}
}

func TestResolvePrefersNewestVersionPresentInArchive(t *testing.T) {
	cfg := testConfig()
	cfg.SuffixVersions = map[string][]uint32{"tex": {1, 2, 3}}
	a := archiveWith(t, "natives/STM/a/b.tex.2") // only the middle version exists

	matches, ok := Resolve(a, cfg, "a/b.tex", "tex")
	if !ok {
		t.Fatal("Resolve reported no match")
	}
	if len(matches) != 1 || matches[0] != "natives/STM/a/b.tex.2" {
		t.Fatalf("matches = %v, want the one archived version", matches)
	}
}

func TestResolveUnknownExtension(t *testing.T) {
	cfg := testConfig()
	a := archiveWith(t, "natives/STM/a/b.nope.1")

	if _, ok := Resolve(a, cfg, "a/b.nope", "nope"); ok {
		t.Fatal("Resolve reported a match for an unconfigured extension")
	}
}

func TestResolveNoArchiveHit(t *testing.T) {
	cfg := testConfig()
	cfg.SuffixVersions = map[string][]uint32{"tex": {1}}
	a := archiveWith(t, "natives/STM/unrelated/file.tex.1")

	if _, ok := Resolve(a, cfg, "a/b.tex", "tex"); ok {
		t.Fatal("Resolve reported a match when the archive has no such path")
	}
}

func TestResolveIncludesArchShape(t *testing.T) {
	cfg := testConfig()
	cfg.SuffixVersions = map[string][]uint32{"tex": {1}}
	a := archiveWith(t, "natives/STM/a/b.tex.1.X64")

	matches, ok := Resolve(a, cfg, "a/b.tex", "tex")
	if !ok || len(matches) != 1 || matches[0] != "natives/STM/a/b.tex.1.X64" {
		t.Fatalf("matches = %v, ok=%v, want the X64 shape", matches, ok)
	}
}
