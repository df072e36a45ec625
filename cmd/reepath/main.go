// Package main is the entry point for the reepath path-recovery CLI.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/eigeen/reepath/internal/config"
	"github.com/eigeen/reepath/internal/driver"
	"github.com/eigeen/reepath/internal/minidump"
	"github.com/eigeen/reepath/internal/output"
	"github.com/eigeen/reepath/internal/pakarchive"
	"github.com/eigeen/reepath/internal/progress"
	"github.com/eigeen/reepath/internal/source"
	"github.com/eigeen/reepath/internal/termcolor"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	initLogger()
	os.Exit(run(os.Args[1:]))
}

type searchFlags struct {
	paks            []string
	pakList         string
	dumps           []string
	refLists        []string
	threads         int
	configPath      string
	continueOnError bool
	color           string
}

func run(args []string) int {
	var flags searchFlags

	root := &cobra.Command{
		Use:           "reepath",
		Short:         "Recover full asset paths from archive hashes and memory dumps",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd.Context(), flags)
		},
	}

	root.Flags().StringArrayVar(&flags.paks, "pak", nil, "archive file path (repeatable)")
	root.Flags().StringVar(&flags.pakList, "pak-list", "", "text file listing one archive path per line")
	root.Flags().StringArrayVar(&flags.dumps, "dmp", nil, "memory-dump file path (repeatable)")
	root.Flags().StringArrayVar(&flags.refLists, "ref-list", nil, "text file of known-text candidate paths (repeatable)")
	root.Flags().IntVar(&flags.threads, "threads", runtime.NumCPU(), "upper bound on worker threads")
	root.Flags().StringVar(&flags.configPath, "config", "", "optional TOML config file")
	root.Flags().BoolVar(&flags.continueOnError, "continue-on-error", true, "log and skip per-entry archive read failures instead of aborting")
	root.Flags().StringVar(&flags.color, "color", "auto", "color output: auto, always, never")

	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		var exitErr *exitCodeError
		if errors.As(err, &exitErr) {
			slog.Error(exitErr.msg)
			return exitErr.code
		}
		slog.Error("reepath: fatal", "err", err)
		return 1
	}
	return 0
}

// exitCodeError lets runSearch choose the process exit code that spec.md
// §6/§7's error taxonomy assigns to a given failure, while still flowing
// through cobra's normal error return.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

func runSearch(ctx context.Context, flags searchFlags) error {
	pakPaths, err := collectPakPaths(flags)
	if err != nil {
		return err
	}
	if len(pakPaths) == 0 && len(flags.dumps) == 0 && len(flags.refLists) == 0 {
		return &exitCodeError{code: 1, msg: "no --pak, --pak-list, --dmp, or --ref-list supplied: nothing to recover"}
	}
	if len(flags.refLists) > 0 && len(pakPaths) == 0 {
		return &exitCodeError{code: 1, msg: "--ref-list requires at least one archive (--pak or --pak-list)"}
	}

	cfg, err := config.LoadFromCLIOrCWD(flags.configPath)
	if err != nil {
		return &exitCodeError{code: 1, msg: fmt.Sprintf("loading config: %v", err)}
	}

	openSpin := progress.New("opening archives and memory dumps")
	openSpin.Start()
	archives, err := openArchives(pakPaths)
	if err != nil {
		openSpin.Stop()
		return &exitCodeError{code: 1, msg: fmt.Sprintf("opening archives: %v", err)}
	}
	if archives != nil {
		defer func() { _ = archives.Close() }()
	}

	dumps := openDumps(flags.dumps)
	openSpin.Stop()

	refLines, err := readRefLists(flags.refLists)
	if err != nil {
		return &exitCodeError{code: 1, msg: fmt.Sprintf("reading ref lists: %v", err)}
	}

	dumpBar := progress.NewBar("scanning memory dumps", countDumpBlocks(dumps))
	archiveBar := progress.NewBar("scanning archive entries", countArchiveEntries(archives))

	start := time.Now()
	result, err := driver.Run(ctx, driver.Options{
		Archives:        archives,
		Dumps:           dumps,
		RefLines:        refLines,
		Config:          cfg,
		Threads:         flags.threads,
		ContinueOnError: flags.continueOnError,
		DumpProgress:    dumpBar.Advance,
		ArchiveProgress: archiveBar.Advance,
	})
	dumpBar.Stop()
	archiveBar.Stop()
	if err != nil {
		return &exitCodeError{code: 1, msg: fmt.Sprintf("recovery run failed: %v", err)}
	}

	if err := output.Write(".", result); err != nil {
		return &exitCodeError{code: 1, msg: fmt.Sprintf("writing output: %v", err)}
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	slog.Info("recovery complete",
		"resolved", len(result.Found),
		"unknown", len(result.Unknown),
		"elapsed", elapsed.String(),
	)
	printSummary(flags.color, len(result.Found), len(result.Unknown), elapsed)
	return nil
}

// countDumpBlocks precomputes the progress bar's total: the same
// coalesced block count the driver's memory-dump pipeline will iterate.
func countDumpBlocks(dumps []*minidump.Dump) int {
	n := 0
	for _, d := range dumps {
		n += len(source.Blocks(d))
	}
	return n
}

// countArchiveEntries precomputes the progress bar's total: the same
// canonically-owned entry count the driver's archive pipeline will read.
func countArchiveEntries(archives *pakarchive.Collection) int {
	if archives == nil {
		return 0
	}
	n := 0
	for _, a := range archives.Archives() {
		n += len(source.CanonicalEntries(archives, a))
	}
	return n
}

// printSummary writes a short human-readable completion banner to stdout,
// independent of the slog line above, following the teacher's own
// color-mode-resolved terminal banner.
func printSummary(colorFlag string, resolved, unknown int, elapsed time.Duration) {
	mode, err := termcolor.ParseColorMode(colorFlag)
	if err != nil {
		mode = termcolor.ColorAuto
	}
	cw := termcolor.NewWriter(os.Stdout, mode)
	fmt.Printf("%s %s resolved, %s unknown (%s)\n",
		cw.BoldCyan("reepath:"),
		cw.Green(fmt.Sprintf("%d", resolved)),
		cw.Yellow(fmt.Sprintf("%d", unknown)),
		elapsed,
	)
}

func collectPakPaths(flags searchFlags) ([]string, error) {
	paths := append([]string(nil), flags.paks...)
	if flags.pakList == "" {
		return paths, nil
	}
	listed, err := readListFile(flags.pakList)
	if err != nil {
		return nil, fmt.Errorf("reading --pak-list %s: %w", flags.pakList, err)
	}
	return append(paths, listed...), nil
}

func openArchives(paths []string) (*pakarchive.Collection, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	archives := make([]*pakarchive.Archive, 0, len(paths))
	for _, p := range paths {
		a, err := pakarchive.Open(p)
		if err != nil {
			for _, opened := range archives {
				_ = opened.Close()
			}
			return nil, err
		}
		archives = append(archives, a)
	}
	return pakarchive.NewCollection(archives...), nil
}

// openDumps opens every --dmp path, logging and skipping ones that fail
// per spec.md §7's "DumpOpenError ... fatal to that dump only".
func openDumps(paths []string) []*minidump.Dump {
	dumps := make([]*minidump.Dump, 0, len(paths))
	for _, p := range paths {
		d, err := minidump.Open(p)
		if err != nil {
			slog.Warn("skipping unreadable memory dump", "path", p, "err", err)
			continue
		}
		dumps = append(dumps, d)
	}
	return dumps
}

func readRefLists(paths []string) ([]string, error) {
	var lines []string
	for _, p := range paths {
		fileLines, err := readListFile(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		lines = append(lines, fileLines...)
	}
	return lines, nil
}

// readListFile reads one path/text-candidate per line, skipping blank
// lines and "#" comments, per spec.md §6's --pak-list/--ref-list format.
func readListFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is supplied by the operator via CLI flag
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

// initLogger reads REEPATH_LOG_LEVEL and REEPATH_LOG_FORMAT from the
// environment, constructs the appropriate slog.Handler, and installs it
// as the default logger via slog.SetDefault.
func initLogger() {
	level := slog.LevelInfo
	switch getEnv("REEPATH_LOG_LEVEL", "info") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if getEnv("REEPATH_LOG_FORMAT", "text") == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
