// Package resolver implements the candidate expander & prober (C5): given
// a raw path and its extension, it enumerates full-path candidates across
// the cross-product described in spec.md §4.4 and retains only those
// confirmed present in the archive index.
package resolver

import (
	"strings"

	"github.com/eigeen/reepath/internal/config"
	"github.com/eigeen/reepath/internal/pakarchive"
)

// Membership is the archive presence test the resolver probes against;
// satisfied by *pakarchive.Collection and *pakarchive.Archive.
type Membership interface {
	Contains(hash uint64) bool
}

// Resolve expands rawPath (given its extension) across the version,
// prefix, platform/arch, and language cross-product of spec.md §4.4 and
// returns every full path confirmed present in archive. ok is false when
// the extension is unknown, or when every version was exhausted with
// zero base hits — both cases are non-error outcomes that route rawPath
// to unknown.list (spec.md §7).
func Resolve(archive Membership, cfg config.Config, rawPath, extension string) (matches []string, ok bool) {
	versions, known := cfg.Versions(extension)
	if !known || len(versions) == 0 {
		return nil, false
	}

	for i := len(versions) - 1; i >= 0; i-- {
		versionStr := uitoa(versions[i])

		var versionMatches []string
		for _, prefix := range cfg.Prefixes {
			for _, base := range baseShapes(prefix, rawPath, versionStr) {
				if archive.Contains(pakarchive.HashPath(base)) {
					versionMatches = append(versionMatches, base)
				}
				for _, lang := range cfg.Languages {
					withLang := base + "." + lang
					if archive.Contains(pakarchive.HashPath(withLang)) {
						versionMatches = append(versionMatches, withLang)
					}
				}
			}
		}

		if len(versionMatches) == 0 {
			continue
		}
		return withStreamingOverlay(archive, cfg, versionMatches), true
	}

	return nil, false
}

// baseShapes returns the three candidate shapes for one (prefix, version)
// pair: bare, +X64, and +<platform tag>, in that order.
func baseShapes(prefix, rawPath, version string) []string {
	bare := prefix + rawPath + "." + version
	shapes := []string{bare, bare + ".X64"}
	if tag, ok := config.PlatformTagForPrefix(prefix); ok {
		shapes = append(shapes, bare+"."+tag)
	}
	return shapes
}

// withStreamingOverlay walks matches in order and, immediately after each
// one, inserts its streaming/ variant if the archive confirms it —
// matching spec.md §4.4 step 6 / §8 scenario 3 ("the base hit is reported
// first, the streaming overlay immediately after it").
func withStreamingOverlay(archive Membership, cfg config.Config, matches []string) []string {
	out := make([]string, 0, len(matches)*2)
	for _, m := range matches {
		out = append(out, m)
		if overlay, ok := insertStreaming(m, cfg.Prefixes); ok {
			if archive.Contains(pakarchive.HashPath(overlay)) {
				out = append(out, overlay)
			}
		}
	}
	return out
}

// insertStreaming finds the first configured prefix occurring within
// full and inserts the literal token "streaming/" immediately after it.
func insertStreaming(full string, prefixes []string) (string, bool) {
	for _, p := range prefixes {
		if idx := strings.Index(full, p); idx >= 0 {
			insertAt := idx + len(p)
			return full[:insertAt] + "streaming/" + full[insertAt:], true
		}
	}
	return "", false
}

func uitoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
