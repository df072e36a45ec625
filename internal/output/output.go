// Package output implements the external output writers (spec.md §6):
// output.list, output_raw.list, and unknown.list.
package output

import (
	"bufio"
	"fmt"
	"os"
	"sort"
)

// FoundPath pairs a raw path with every archive-confirmed full path it
// expanded to (spec.md §3's "found_paths").
type FoundPath struct {
	RawPath   string
	FullPaths []string
}

// Result is the driver's final, aggregated outcome: found_paths sorted
// and deduplicated on raw path, plus the set of raw paths that validated
// but matched nothing.
type Result struct {
	Found   []FoundPath
	Unknown []string
}

// Write produces output.list, output_raw.list, and unknown.list in dir.
func Write(dir string, result Result) error {
	if err := writeLines(dir, "output.list", fullPathLines(result.Found)); err != nil {
		return err
	}
	if err := writeLines(dir, "output_raw.list", rawPathLines(result.Found)); err != nil {
		return err
	}
	if err := writeLines(dir, "unknown.list", result.Unknown); err != nil {
		return err
	}
	return nil
}

func fullPathLines(found []FoundPath) []string {
	var lines []string
	for _, f := range found {
		lines = append(lines, f.FullPaths...)
	}
	return lines
}

func rawPathLines(found []FoundPath) []string {
	lines := make([]string, 0, len(found))
	for _, f := range found {
		lines = append(lines, f.RawPath)
	}
	return lines
}

func writeLines(dir, name string, lines []string) error {
	path := dir + string(os.PathSeparator) + name
	f, err := os.Create(path) //nolint:gosec // G304: dir is the operator's chosen working directory
	if err != nil {
		return fmt.Errorf("output: creating %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line); err != nil {
			return fmt.Errorf("output: writing %s: %w", name, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("output: writing %s: %w", name, err)
		}
	}
	return w.Flush()
}

// SortAndDedup sorts found by raw path ascending and removes adjacent
// duplicates, keeping the first occurrence — spec.md §4.6's aggregation
// rule and §8's "output_raw.list is sorted ascending with no adjacent
// duplicates" property.
func SortAndDedup(found []FoundPath) []FoundPath {
	sort.SliceStable(found, func(i, j int) bool { return found[i].RawPath < found[j].RawPath })

	out := found[:0:0]
	for i, f := range found {
		if i > 0 && f.RawPath == found[i-1].RawPath {
			continue
		}
		out = append(out, f)
	}
	return out
}
