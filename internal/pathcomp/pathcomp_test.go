package pathcomp

import "testing"

func testConfig() Config {
	return Config{
		Prefixes:  []string{"natives/STM/", "natives/NSW/", "natives/MSG/"},
		Languages: LanguageList{"Ja", "En", "Zh", "Ko"},
	}
}

func TestSetVersionKeepsRawPath(t *testing.T) {
	cfg := testConfig()
	p, ok := Parse("natives/stm/systems/rendering/bluenoise256x256/hdr_rgba_0028.tex.251111100", cfg)
	if !ok {
		t.Fatal("Parse returned false")
	}

	wantRaw := "systems/rendering/bluenoise256x256/hdr_rgba_0028.tex"
	if got := p.RawPath(); got != wantRaw {
		t.Fatalf("RawPath() = %q, want %q", got, wantRaw)
	}
	if v, ok := p.VersionStr(); !ok || v != "251111100" {
		t.Fatalf("VersionStr() = (%q, %v), want (251111100, true)", v, ok)
	}

	if !p.SetVersionStr("241106027") {
		t.Fatal("SetVersionStr returned false")
	}
	wantFull := "natives/stm/systems/rendering/bluenoise256x256/hdr_rgba_0028.tex.241106027"
	if got := p.NormalizedFullPath(); got != wantFull {
		t.Fatalf("NormalizedFullPath() = %q, want %q", got, wantFull)
	}
	if got := p.RawPath(); got != wantRaw {
		t.Fatalf("RawPath() after SetVersionStr = %q, want %q", got, wantRaw)
	}
	if v, ok := p.VersionStr(); !ok || v != "241106027" {
		t.Fatalf("VersionStr() after set = (%q, %v)", v, ok)
	}
}

func TestSetAndClearTags(t *testing.T) {
	cfg := testConfig()
	p, ok := Parse("natives/STM/systems/rendering/bluenoise256x256/hdr_rgba_0028.tex.241106027", cfg)
	if !ok {
		t.Fatal("Parse returned false")
	}

	if !p.SetArch("x64") {
		t.Fatal("SetArch(x64) returned false")
	}
	wantFull := "natives/STM/systems/rendering/bluenoise256x256/hdr_rgba_0028.tex.241106027.X64"
	if got := p.NormalizedFullPath(); got != wantFull {
		t.Fatalf("NormalizedFullPath() = %q, want %q", got, wantFull)
	}
	if arch, ok := p.Arch(); !ok || arch != "X64" {
		t.Fatalf("Arch() = (%q, %v), want (X64, true)", arch, ok)
	}

	if !p.SetLanguage("ja") {
		t.Fatal("SetLanguage(ja) returned false")
	}
	if lang, ok := p.Language(); !ok || lang != "Ja" {
		t.Fatalf("Language() = (%q, %v), want (Ja, true)", lang, ok)
	}

	if !p.SetArch("") {
		t.Fatal("SetArch(\"\") returned false")
	}
	if _, ok := p.Arch(); ok {
		t.Fatal("Arch() still present after SetArch(\"\")")
	}

	if !p.ClearVersion() {
		t.Fatal("ClearVersion returned false")
	}
	wantCleared := "natives/STM/systems/rendering/bluenoise256x256/hdr_rgba_0028.tex"
	if got := p.NormalizedFullPath(); got != wantCleared {
		t.Fatalf("NormalizedFullPath() after ClearVersion = %q, want %q", got, wantCleared)
	}
	if _, ok := p.VersionStr(); ok {
		t.Fatal("VersionStr() still present after ClearVersion")
	}
	if _, ok := p.Language(); ok {
		t.Fatal("Language() still present after ClearVersion (tags are anchored after version)")
	}
}

func TestParseNormalizesBackslashesAndStripsMarkers(t *testing.T) {
	cfg := testConfig()
	p, ok := Parse(`@natives\STM\x\y.user.3.ja`, cfg)
	if !ok {
		t.Fatal("Parse returned false")
	}
	// Parse normalizes separators and markers but does not rewrite tag
	// case in place; that only happens through a setter, so the language
	// accessor reports the canonical spelling while the backing string
	// still reads "ja" until mutated.
	wantFull := "natives/STM/x/y.user.3.ja"
	if got := p.NormalizedFullPath(); got != wantFull {
		t.Fatalf("NormalizedFullPath() = %q, want %q", got, wantFull)
	}
	if lang, ok := p.Language(); !ok || lang != "Ja" {
		t.Fatalf("Language() = (%q, %v), want (Ja, true)", lang, ok)
	}

	if !p.SetLanguage("") {
		t.Fatal("SetLanguage(\"\") returned false")
	}
	if got, want := p.NormalizedFullPath(), "natives/STM/x/y.user.3"; got != want {
		t.Fatalf("after clearing language: %q, want %q", got, want)
	}

	if !p.SetArch("x64") {
		t.Fatal("SetArch(x64) returned false")
	}
	if got, want := p.NormalizedFullPath(), "natives/STM/x/y.user.3.X64"; got != want {
		t.Fatalf("after SetArch: %q, want %q", got, want)
	}
}

func TestParseRejectsEmptyAndComments(t *testing.T) {
	cfg := testConfig()
	if _, ok := Parse("", cfg); ok {
		t.Fatal("Parse(\"\") returned true")
	}
	if _, ok := Parse("   ", cfg); ok {
		t.Fatal("Parse(whitespace) returned true")
	}
	if _, ok := Parse("# a comment", cfg); ok {
		t.Fatal("Parse(comment) returned true")
	}
}

func TestExtensionAndPrefix(t *testing.T) {
	cfg := testConfig()
	p, ok := Parse("natives/STM/x/y.tex.1", cfg)
	if !ok {
		t.Fatal("Parse returned false")
	}
	if ext, ok := p.Extension(); !ok || ext != "tex" {
		t.Fatalf("Extension() = (%q, %v), want (tex, true)", ext, ok)
	}
	if prefix, ok := p.Prefix(); !ok || prefix != "natives/STM/" {
		t.Fatalf("Prefix() = (%q, %v), want (natives/STM/, true)", prefix, ok)
	}
}

func TestNoVersionLeavesRawPathAsWholeTail(t *testing.T) {
	cfg := testConfig()
	p, ok := Parse("natives/STM/x/y.tex", cfg)
	if !ok {
		t.Fatal("Parse returned false")
	}
	if got, want := p.RawPath(), "x/y.tex"; got != want {
		t.Fatalf("RawPath() = %q, want %q", got, want)
	}
	if p.HasVersion() {
		t.Fatal("HasVersion() = true for a path with no version segment")
	}
}
