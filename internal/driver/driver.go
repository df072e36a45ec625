// Package driver implements the parallel driver (C7): it feeds the
// memory-dump and archive-entry pipelines through the scanner, validator,
// cache, and resolver, reporting progress and aggregating the final
// result (spec.md §4.6).
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/eigeen/reepath/internal/cache"
	"github.com/eigeen/reepath/internal/config"
	"github.com/eigeen/reepath/internal/filter"
	"github.com/eigeen/reepath/internal/minidump"
	"github.com/eigeen/reepath/internal/output"
	"github.com/eigeen/reepath/internal/pakarchive"
	"github.com/eigeen/reepath/internal/pathcomp"
	"github.com/eigeen/reepath/internal/resolver"
	"github.com/eigeen/reepath/internal/scan"
	"github.com/eigeen/reepath/internal/source"
)

// defaultMaxWorkers mirrors spec.md §5's default worker bound.
const defaultMaxWorkers = 8

// Progress is invoked with (current, total) as blocks or entries
// complete, per spec.md §4.6. Either callback may be nil.
type Progress func(current, total int)

// Options configures one driver run.
type Options struct {
	Archives *pakarchive.Collection
	Dumps    []*minidump.Dump
	RefLines []string // known-text lines from --ref-list files
	Config   config.Config

	// Threads upper-bounds worker parallelism; a value <= 0 or above
	// runtime.NumCPU() becomes runtime.NumCPU(), and the result is always
	// capped at defaultMaxWorkers.
	Threads int

	// ContinueOnError controls whether a per-entry archive read failure
	// is logged and skipped (true; the CLI's default) or aborts the batch.
	ContinueOnError bool

	DumpProgress    Progress
	ArchiveProgress Progress

	Logger *slog.Logger
}

func (o Options) workerLimit() int {
	n := o.Threads
	if n <= 0 || n > runtime.NumCPU() {
		n = runtime.NumCPU()
	}
	if n > defaultMaxWorkers {
		n = defaultMaxWorkers
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

type sharedState struct {
	mu      sync.Mutex
	matches map[string][]string // rawPath -> full paths, in discovery order, pre-dedup
	unknown map[string]struct{}
	order   []string // rawPath discovery order, for output.list's "scan-order of discovery"
	cache   *cache.Cache[string]
}

func newSharedState() *sharedState {
	return &sharedState{
		matches: make(map[string][]string),
		unknown: make(map[string]struct{}),
		cache:   cache.New[string](),
	}
}

func (s *sharedState) record(rawPath string, matches []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.matches[rawPath]; seen {
		return
	}
	if len(matches) == 0 {
		s.unknown[rawPath] = struct{}{}
		return
	}
	s.matches[rawPath] = matches
	s.order = append(s.order, rawPath)
}

// Run executes both pipelines to completion and returns the aggregated,
// sorted-and-deduplicated result.
func Run(ctx context.Context, opts Options) (output.Result, error) {
	state := newSharedState()
	log := opts.logger()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workerLimit())

	if err := runMemoryDumpPipeline(gctx, g, opts, state); err != nil {
		return output.Result{}, err
	}
	if err := runArchivePipeline(gctx, g, opts, state); err != nil {
		return output.Result{}, err
	}
	runRefListPipeline(opts, state)

	if err := g.Wait(); err != nil {
		return output.Result{}, err
	}

	log.Info("recovery run complete", "resolved", len(state.matches), "unknown", len(state.unknown))
	return buildResult(state), nil
}

func buildResult(state *sharedState) output.Result {
	found := make([]output.FoundPath, 0, len(state.matches))
	for _, rawPath := range state.order {
		found = append(found, output.FoundPath{RawPath: rawPath, FullPaths: state.matches[rawPath]})
	}
	found = output.SortAndDedup(found)

	unknown := make([]string, 0, len(state.unknown))
	for rawPath := range state.unknown {
		unknown = append(unknown, rawPath)
	}

	return output.Result{Found: found, Unknown: unknown}
}

// processBuffer runs C8->C1->C2->(C6/C5) over one buffer, from either
// pipeline.
func processBuffer(buf []byte, archives *pakarchive.Collection, cfg config.Config, state *sharedState) {
	if filter.ShouldSkip(buf) {
		return
	}
	for _, candidate := range scan.Candidates(buf) {
		resolveRawCandidate(candidate, archives, cfg, state)
	}
}

// resolveRawCandidate expands a scanner-produced candidate string (which
// is already a raw path — see spec.md §9's note that raw paths are
// always expanded directly, never component-parsed).
func resolveRawCandidate(rawPath string, archives *pakarchive.Collection, cfg config.Config, state *sharedState) {
	if o, ok := state.cache.Lookup(rawPath); ok {
		if o.Resolved {
			state.record(rawPath, o.Matches)
		}
		return
	}

	if archives == nil {
		state.cache.StoreNegative(rawPath)
		state.record(rawPath, nil)
		return
	}

	ext := extensionOf(rawPath)
	matches, ok := resolver.Resolve(archives, cfg, rawPath, ext)
	if !ok {
		state.cache.StoreNegative(rawPath)
		state.record(rawPath, nil)
		return
	}
	state.cache.StoreResolved(rawPath, matches)
	state.record(rawPath, matches)
}

func extensionOf(rawPath string) string {
	dot := strings.LastIndexByte(rawPath, '.')
	if dot < 0 {
		return ""
	}
	return rawPath[dot+1:]
}

func runMemoryDumpPipeline(ctx context.Context, g *errgroup.Group, opts Options, state *sharedState) error {
	var blocks []source.Block
	for _, d := range opts.Dumps {
		blocks = append(blocks, source.Blocks(d)...)
	}
	total := len(blocks)

	var totalBytes uint64
	for _, b := range blocks {
		totalBytes += uint64(len(b.Bytes))
	}
	opts.logger().Info("scanning memory-dump blocks", "blocks", total, "bytes", humanize.Bytes(totalBytes))

	var done atomic.Int32
	for _, b := range blocks {
		b := b
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			processBuffer(b.Bytes, opts.Archives, opts.Config, state)
			reportProgress(opts.DumpProgress, &done, total)
			return nil
		})
	}
	return nil
}

func runArchivePipeline(ctx context.Context, g *errgroup.Group, opts Options, state *sharedState) error {
	if opts.Archives == nil {
		return nil
	}

	total := 0
	type archiveWork struct {
		archive *pakarchive.Archive
		hashes  []uint64
	}
	var work []archiveWork
	for _, a := range opts.Archives.Archives() {
		hashes := source.CanonicalEntries(opts.Archives, a)
		total += len(hashes)
		work = append(work, archiveWork{archive: a, hashes: hashes})
	}

	var done atomic.Int32
	log := opts.logger()
	log.Info("scanning archive entries", "archives", len(work), "entries", total)
	for _, w := range work {
		w := w
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			var readErr error
			entries := source.ReadEntries(w.archive, w.hashes, func(hash uint64, err error) {
				log.Warn("entry read failed", "archive", w.archive.Path(), "hash", fmt.Sprintf("%016x", hash), "error", err)
				if readErr == nil {
					readErr = fmt.Errorf("reading entry %016x of %s: %w", hash, w.archive.Path(), err)
				}
				reportProgress(opts.ArchiveProgress, &done, total)
			})
			for _, e := range entries {
				processBuffer(e.Bytes, opts.Archives, opts.Config, state)
				reportProgress(opts.ArchiveProgress, &done, total)
			}
			if readErr != nil && !opts.ContinueOnError {
				return readErr
			}
			return nil
		})
	}
	return nil
}

func runRefListPipeline(opts Options, state *sharedState) {
	if len(opts.RefLines) == 0 {
		return
	}
	pc := opts.Config.PathcompConfig()
	for _, line := range opts.RefLines {
		comp, ok := pathcomp.Parse(line, pc)
		if !ok {
			continue
		}
		if _, ok := comp.Extension(); !ok {
			continue
		}
		resolveRawCandidate(comp.RawPath(), opts.Archives, opts.Config, state)
	}
}

func reportProgress(cb Progress, done *atomic.Int32, total int) {
	n := done.Add(1)
	if cb == nil {
		return
	}
	cb(int(n), total)
}
