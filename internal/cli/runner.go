// Package cli wires the batch anonymizer to a terminal: flag handling,
// logging setup, progress bar, and the summary report.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicom-tag-anonymizer/internal/anonymizer"
	"dicom-tag-anonymizer/internal/catalog"
	"dicom-tag-anonymizer/internal/config"
)

// Options holds CLI configuration options. Zero values defer to config.
type Options struct {
	InputDir string
	Workers  int
	Keep     []string // tags excluded from the default selection, "GGGG,EEEE"
	ListTags bool
	DryRun   bool
	Debug    bool
}

// Run executes the CLI anonymization process.
func Run(opts Options, cfg *config.Config) error {
	if opts.ListTags {
		printCatalog()
		return nil
	}

	if opts.InputDir == "" {
		return fmt.Errorf("input directory is required")
	}

	log, err := newLogger(opts, cfg)
	if err != nil {
		return err
	}

	selection, err := buildSelection(opts.Keep)
	if err != nil {
		return err
	}

	workers := cfg.Batch.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	// User abort stops dispatching new files; in-flight files finish.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printHeader(opts, workers, selection)

	var (
		mu  sync.Mutex
		bar *progressbar.ProgressBar
	)
	progress := func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("anonymizing"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		bar.Set(done)
	}

	report, err := anonymizer.Run(ctx, anonymizer.Config{
		InputDir:      opts.InputDir,
		OutputDirName: cfg.Output.DirName,
		Selection:     selection,
		Workers:       workers,
		DryRun:        opts.DryRun,
		Progress:      progress,
		Logger:        &log,
	})
	if err != nil {
		return err
	}

	printSummary(report, opts, cfg.Output.DirName)
	return nil
}

func newLogger(opts Options, cfg *config.Config) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	var w io.Writer = os.Stderr
	if cfg.Log.Format == "console" {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// buildSelection starts from the full catalog and removes the tags the user
// asked to keep.
func buildSelection(keep []string) (catalog.Selection, error) {
	selection := catalog.DefaultSelection()
	if len(keep) == 0 {
		return selection, nil
	}

	var kept []tag.Tag
	for _, s := range keep {
		t, err := catalog.ParseTag(s)
		if err != nil {
			return catalog.Selection{}, err
		}
		if _, ok := catalog.Lookup(t); !ok {
			return catalog.Selection{}, fmt.Errorf("tag %s is not in the anonymization catalog (see --list-tags)", s)
		}
		kept = append(kept, t)
	}
	return selection.Without(kept...), nil
}

func printCatalog() {
	for _, c := range catalog.Categories() {
		fmt.Println(c.Name)
		for _, e := range c.Entries {
			fmt.Printf("  (%04X,%04X)  %-2s  %s\n", e.Tag.Group, e.Tag.Element, e.VR, e.Name)
		}
		fmt.Println()
	}
}

func printHeader(opts Options, workers int, selection catalog.Selection) {
	fmt.Println("DICOM Tag Anonymizer")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Input:     %s\n", opts.InputDir)
	fmt.Printf("Tags:      %d of %d selected\n", selection.Len(), catalog.Len())
	fmt.Printf("Workers:   %d\n", workers)
	if opts.DryRun {
		fmt.Println("Options:   Dry run")
	}
	fmt.Println()
}

func printSummary(report *anonymizer.Report, opts Options, outputDirName string) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))

	if opts.DryRun {
		fmt.Printf("[DRY RUN] Would process %d file(s):\n", len(report.Results))
		for _, res := range report.Results {
			fmt.Printf("  %s\n", res.Input)
		}
		return
	}

	fmt.Printf("Complete! %d succeeded, %d failed, %d skipped\n",
		report.Processed, report.Failed, report.Skipped)

	for _, res := range report.Results {
		if res.Status == anonymizer.StatusFailed {
			fmt.Printf("  Failed: %s: %s\n", res.Input, res.Reason)
		}
	}

	fmt.Printf("Output:    %s\n", filepath.Join(opts.InputDir, outputDirName))
}
