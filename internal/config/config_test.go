package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultHasExpectedVersions(t *testing.T) {
	cfg := Default()

	cases := map[string][]uint32{
		"tex":  {240701001, 241106027},
		"mesh": {240820143, 241111606},
		"user": {3},
	}
	for ext, want := range cases {
		got, ok := cfg.Versions(ext)
		if !ok {
			t.Fatalf("Versions(%q) missing", ext)
		}
		if len(got) != len(want) {
			t.Fatalf("Versions(%q) = %v, want %v", ext, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("Versions(%q) = %v, want %v", ext, got, want)
			}
		}
	}

	if len(cfg.Prefixes) != 3 {
		t.Fatalf("default prefixes = %v, want 3 entries (STM/NSW/MSG all active)", cfg.Prefixes)
	}
}

func TestVersionsUnknownExtension(t *testing.T) {
	cfg := Default()
	if _, ok := cfg.Versions("not-a-real-extension"); ok {
		t.Fatal("Versions reported true for an unknown extension")
	}
}

func TestLoadMergesLegacyKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	toml := `
languages = ["En", "Ja"]
prefixes = ["natives/STM/"]
use_builtin_suffix_map = false

[suffix_map]
tex = [1]

[suffix_map_full]
tex = [2]

[suffix_map_overrides]
tex = [3]
`
	if err := os.WriteFile(path, []byte(toml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	got, ok := cfg.Versions("tex")
	if !ok || len(got) != 1 || got[0] != 3 {
		t.Fatalf("Versions(tex) = %v, ok=%v, want [3] (suffix_map_overrides wins)", got, ok)
	}
	if len(cfg.Prefixes) != 1 || cfg.Prefixes[0] != "natives/STM/" {
		t.Fatalf("Prefixes = %v, want [natives/STM/]", cfg.Prefixes)
	}
	if len(cfg.Languages) != 2 {
		t.Fatalf("Languages = %v, want 2 entries", cfg.Languages)
	}
}

func TestLoadFromCLIOrCWDFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	defer func() { _ = os.Chdir(wd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}

	cfg, err := LoadFromCLIOrCWD("")
	if err != nil {
		t.Fatalf("LoadFromCLIOrCWD: %v", err)
	}
	if len(cfg.SuffixVersions) == 0 {
		t.Fatal("expected built-in suffix map when no config.toml is present")
	}
}

func TestPlatformTagForPrefix(t *testing.T) {
	cases := map[string]string{
		"natives/STM/": "STM",
		"natives/NSW/": "NSW",
		"natives/MSG/": "MSG",
	}
	for prefix, want := range cases {
		got, ok := PlatformTagForPrefix(prefix)
		if !ok || got != want {
			t.Fatalf("PlatformTagForPrefix(%q) = (%q, %v), want (%q, true)", prefix, got, ok, want)
		}
	}
}
