package anonymizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
	"golang.org/x/sync/errgroup"

	"dicom-tag-anonymizer/internal/catalog"
	dcm "dicom-tag-anonymizer/internal/dicom"
	"dicom-tag-anonymizer/internal/uidmap"
)

// DefaultOutputDirName is the subdirectory created inside the input
// directory for anonymized output.
const DefaultOutputDirName = "anonymized"

// ErrNotDirectory is returned when the input path exists but is not a
// directory.
var ErrNotDirectory = errors.New("input path is not a directory")

// Status is the terminal state of one file.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result records the outcome for one input file.
type Result struct {
	Input  string
	Output string
	Status Status
	Reason string
}

// Report aggregates per-file results for one batch run. Results keep the
// enumeration order of the input files.
type Report struct {
	Results   []Result
	Processed int
	Failed    int
	Skipped   int
}

// ProgressFunc is called after each file reaches a terminal state. It may
// be called from multiple worker goroutines.
type ProgressFunc func(done, total int)

// Config holds the batch anonymization configuration.
type Config struct {
	InputDir      string
	OutputDirName string // defaults to DefaultOutputDirName
	Selection     catalog.Selection
	Workers       int // bounded worker pool size, defaults to 1
	DryRun        bool
	Progress      ProgressFunc
	Logger        *zerolog.Logger
}

// Run anonymizes every file found under cfg.InputDir and writes the results
// to the output subdirectory. File-level failures are recorded in the
// report and never abort the batch; only a missing or invalid input
// directory is fatal. Canceling ctx stops dispatching new files while
// letting in-flight files finish so no half-written output is left behind.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	log := cfg.Logger
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	if cfg.OutputDirName == "" {
		cfg.OutputDirName = DefaultOutputDirName
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	info, err := os.Stat(cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("input directory %s: %w", cfg.InputDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", cfg.InputDir, ErrNotDirectory)
	}

	files, err := dcm.FindFiles(cfg.InputDir, cfg.OutputDirName)
	if err != nil {
		return nil, fmt.Errorf("could not scan %s: %w", cfg.InputDir, err)
	}
	if len(files) == 0 {
		log.Info().Str("dir", cfg.InputDir).Msg("no files found")
		return &Report{}, nil
	}

	if cfg.DryRun {
		report := &Report{Skipped: len(files)}
		for _, f := range files {
			report.Results = append(report.Results, Result{
				Input:  f,
				Status: StatusSkipped,
				Reason: "dry run",
			})
		}
		return report, nil
	}

	outputDir := filepath.Join(cfg.InputDir, cfg.OutputDirName)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create output directory: %w", err)
	}

	// The UID table is the only cross-file shared state; it lives exactly
	// as long as this run.
	transformer := NewTransformer(cfg.Selection, uidmap.New())

	total := len(files)
	results := make([]Result, total)
	var done atomic.Int64

	finish := func(i int, res Result) {
		results[i] = res
		d := done.Add(1)
		if cfg.Progress != nil {
			cfg.Progress(int(d), total)
		}
	}

	var g errgroup.Group
	g.SetLimit(cfg.Workers)

	for i, path := range files {
		i, path := i, path
		// Stop dispatching once canceled; workers already running finish
		// their file cleanly.
		if ctx.Err() != nil {
			finish(i, Result{Input: path, Status: StatusSkipped, Reason: "canceled"})
			continue
		}

		g.Go(func() error {
			res := processFile(transformer, cfg.InputDir, outputDir, path, log)
			finish(i, res)
			return nil
		})
	}
	g.Wait()

	report := &Report{Results: results}
	for _, res := range results {
		switch res.Status {
		case StatusSuccess:
			report.Processed++
		case StatusFailed:
			report.Failed++
		case StatusSkipped:
			report.Skipped++
		}
	}

	log.Info().
		Int("processed", report.Processed).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Str("output", outputDir).
		Msg("batch complete")

	return report, nil
}

// processFile runs the per-file pipeline: read, transform every element,
// strip private tags, sync the file meta UID, write atomically.
func processFile(t *Transformer, inputDir, outputDir, path string, log *zerolog.Logger) Result {
	rel, err := filepath.Rel(inputDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	outPath := filepath.Join(outputDir, rel)

	ds, err := dcm.ReadDicom(path)
	if err != nil {
		return Result{Input: path, Status: StatusFailed, Reason: fmt.Sprintf("unreadable file: %v", err)}
	}

	elements := make([]*dicom.Element, 0, len(ds.Data.Elements))
	for _, elem := range ds.Data.Elements {
		outcome := t.Apply(elem)
		switch outcome.Disposition {
		case Replace:
			elements = append(elements, outcome.Element)
		case Remove:
			if outcome.Skipped {
				log.Warn().
					Str("file", path).
					Str("tag", elem.Tag.String()).
					Str("reason", outcome.Reason).
					Msg("transform skipped")
			}
		default:
			elements = append(elements, elem)
		}
	}

	anonymized := dicom.Dataset{Elements: elements}
	StripPrivate(&anonymized)
	t.syncFileMeta(&anonymized)

	out := dcm.Dataset{Data: anonymized, FilePath: outPath}
	if err := out.Save(outPath); err != nil {
		return Result{Input: path, Status: StatusFailed, Reason: fmt.Sprintf("write failed: %v", err)}
	}

	return Result{Input: path, Output: outPath, Status: StatusSuccess}
}

// syncFileMeta keeps MediaStorageSOPInstanceUID (0002,0003) consistent with
// the remapped SOP Instance UID. Both carry the same original value, so
// resolving through the shared table yields the matching replacement.
func (t *Transformer) syncFileMeta(ds *dicom.Dataset) {
	if !t.selection.Contains(tag.SOPInstanceUID) {
		return
	}

	elem, err := ds.FindElementByTag(tag.MediaStorageSOPInstanceUID)
	if err != nil {
		return
	}
	original := dcm.ElementString(elem)
	if original == "" {
		return
	}

	outcome := replaceString(elem, t.uids.Resolve(original))
	if outcome.Disposition != Replace {
		return
	}
	for i, e := range ds.Elements {
		if e.Tag == tag.MediaStorageSOPInstanceUID {
			ds.Elements[i] = outcome.Element
		}
	}
}
