// Package config loads and holds the recovery engine's runtime
// configuration: recognized languages, archive prefixes, and the
// extension->version table (C4), per spec.md §6 and §9.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/eigeen/reepath/internal/pathcomp"
)

// ErrParse wraps a config file TOML parse failure; fatal at startup per
// spec.md §7.
var ErrParse = errors.New("config: parse failed")

// Config is the immutable, load-time snapshot shared read-only across
// every worker for the run's duration (spec.md §5's "immutable
// snapshot; freely shared").
type Config struct {
	Languages      []string
	Prefixes       []string
	SuffixVersions map[string][]uint32
}

// file mirrors the TOML schema in spec.md §6, including the two legacy
// keys merged into SuffixMap at load time.
type file struct {
	Languages           []string            `toml:"languages"`
	Prefixes            []string            `toml:"prefixes"`
	UseBuiltinSuffixMap *bool               `toml:"use_builtin_suffix_map"`
	SuffixMap           map[string][]uint32 `toml:"suffix_map"`
	SuffixMapOverrides  map[string][]uint32 `toml:"suffix_map_overrides"`
	SuffixMapFull       map[string][]uint32 `toml:"suffix_map_full"`
}

// Default returns the built-in configuration: all three platform
// prefixes active, the full built-in language list, and the built-in
// extension->version table.
func Default() Config {
	return Config{
		Languages:      append([]string(nil), defaultLanguages...),
		Prefixes:       append([]string(nil), defaultPrefixes...),
		SuffixVersions: copySuffixMap(defaultSuffixVersions),
	}
}

// Load reads and parses a TOML config file at path, per spec.md §6's
// schema: languages, prefixes, use_builtin_suffix_map (default true),
// suffix_map, with the legacy suffix_map_overrides/suffix_map_full keys
// merged in (later keys win: suffix_map, then suffix_map_full, then
// suffix_map_overrides).
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: config path is supplied by the operator via CLI flag
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}

	var f file
	if _, err := toml.Decode(string(data), &f); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	return fromFile(f), nil
}

func fromFile(f file) Config {
	languages := defaultLanguages
	if f.Languages != nil {
		languages = f.Languages
	}
	prefixes := defaultPrefixes
	if f.Prefixes != nil {
		prefixes = f.Prefixes
	}

	useBuiltin := true
	if f.UseBuiltinSuffixMap != nil {
		useBuiltin = *f.UseBuiltinSuffixMap
	}

	suffixMap := map[string][]uint32{}
	if useBuiltin {
		suffixMap = copySuffixMap(defaultSuffixVersions)
	}
	for ext, versions := range f.SuffixMap {
		suffixMap[ext] = versions
	}
	for ext, versions := range f.SuffixMapFull {
		suffixMap[ext] = versions
	}
	for ext, versions := range f.SuffixMapOverrides {
		suffixMap[ext] = versions
	}

	return Config{
		Languages:      append([]string(nil), languages...),
		Prefixes:       append([]string(nil), prefixes...),
		SuffixVersions: suffixMap,
	}
}

func copySuffixMap(src map[string][]uint32) map[string][]uint32 {
	dst := make(map[string][]uint32, len(src))
	for k, v := range src {
		dst[k] = append([]uint32(nil), v...)
	}
	return dst
}

// LoadFromCLIOrCWD resolves the config precedence spec.md §6 describes:
// an explicit --config flag wins; otherwise a "config.toml" in the
// working directory is tried; otherwise the built-in defaults apply.
func LoadFromCLIOrCWD(flagPath string) (Config, error) {
	if flagPath != "" {
		return Load(flagPath)
	}
	if _, err := os.Stat("config.toml"); err == nil {
		return Load("config.toml")
	}
	return Default(), nil
}

// Versions returns the ordered version list for extension, and whether
// the extension is known (C4's lookup, used by the resolver).
func (c Config) Versions(extension string) ([]uint32, bool) {
	v, ok := c.SuffixVersions[extension]
	return v, ok
}

// PathcompConfig adapts Config to the pathcomp.Config shape the path
// components parser (C3) needs.
func (c Config) PathcompConfig() pathcomp.Config {
	return pathcomp.Config{
		Prefixes:  c.Prefixes,
		Languages: pathcomp.LanguageList(c.Languages),
	}
}

// PlatformTagForPrefix returns the platform tag (STM/NSW/MSG) associated
// with a configured prefix, per spec.md §4.4 step 3: "NSW" for
// "natives/NSW/", etc. It derives the tag from the path segment between
// the two slashes of the prefix, so a custom prefix list still produces a
// sensible tag as long as it follows the natives/<TAG>/ shape.
func PlatformTagForPrefix(prefix string) (string, bool) {
	const wantSlashes = 2
	slashes := 0
	start := -1
	for i := 0; i < len(prefix); i++ {
		if prefix[i] == '/' {
			slashes++
			if slashes == 1 {
				start = i + 1
			}
			if slashes == wantSlashes {
				return prefix[start:i], true
			}
		}
	}
	return "", false
}

// sortedExtensions returns the configured extensions in sorted order; it
// exists for deterministic test iteration, not for production use.
func (c Config) sortedExtensions() []string {
	exts := make([]string, 0, len(c.SuffixVersions))
	for e := range c.SuffixVersions {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return exts
}
