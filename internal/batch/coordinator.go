// Package batch discovers input documents, fans them out over a fixed worker
// pool and reports what happened.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spherical/ocr-batch/internal/config"
	"github.com/spherical/ocr-batch/internal/domain"
	"github.com/spherical/ocr-batch/internal/observability"
	"github.com/spherical/ocr-batch/internal/pdf"
)

// Options describes one batch run.
type Options struct {
	InputDir      string
	OutputDirName string
	OutputPrefix  string
	Extension     string
	ForceOCR      bool
	Language      string
	Workers       int
}

// ProgressFactory builds a progress reporter once the task count is known.
type ProgressFactory func(total int) domain.Progress

// Coordinator runs the validate, prepare, discover, build, dispatch and report steps.
type Coordinator struct {
	runner    TaskRunner
	logger    *observability.Logger
	validator *pdf.Validator
	progress  ProgressFactory
	recorder  domain.Recorder
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithProgress attaches a progress reporter factory.
func WithProgress(f ProgressFactory) Option {
	return func(c *Coordinator) { c.progress = f }
}

// WithRecorder attaches a run journal.
func WithRecorder(r domain.Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

// NewCoordinator creates a coordinator that logs through logger.
func NewCoordinator(runner TaskRunner, logger *observability.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = observability.Nop()
	}
	c := &Coordinator{
		runner:    runner,
		logger:    logger,
		validator: pdf.NewValidator(),
		progress:  func(int) domain.Progress { return nopProgress{} },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes one batch. It returns an error only for fatal conditions
// (invalid input directory, unreadable directory listing, ctx cancelled
// mid-batch). A nil summary with a nil error means no matching files were
// found. Workers below 1 resolve to config.DefaultWorkers().
func (c *Coordinator) Run(ctx context.Context, opts Options) (*domain.Summary, error) {
	started := time.Now()
	if opts.Workers < 1 {
		opts.Workers = config.DefaultWorkers()
	}

	if err := c.validator.ValidateDir(opts.InputDir); err != nil {
		c.logger.Error().Msgf("Error: %s", domainDetail(err))
		return nil, err
	}

	outputDir := OutputDir(opts)
	if err := PrepareOutputDir(outputDir); err != nil {
		c.logger.Error().Err(err).Msgf("Could not create output folder %q", outputDir)
	}

	c.logger.Info().Msgf("Scanning for PDF files in: %s", opts.InputDir)
	files, err := Discover(opts.InputDir, opts.Extension)
	if err != nil {
		c.logger.Error().Err(err).Msg("Could not list the input folder")
		return nil, err
	}

	if len(files) == 0 {
		c.logger.Info().Msg("No files found in the input folder.")
		return nil, nil
	}
	c.logger.Info().Msgf("Found %d PDF files. Initializing...", len(files))

	tasks := BuildTasks(files, outputDir, opts)

	c.logger.Info().Msgf("Starting OCR processing using %d parallel workers.", opts.Workers)
	c.logger.Info().
		Str("language", opts.Language).
		Bool("force_ocr", opts.ForceOCR).
		Msgf("OCR Language: '%s', Force OCR: %t", opts.Language, opts.ForceOCR)

	results, err := dispatch(ctx, c.runner, tasks, opts.Workers, c.progress(len(tasks)), c.logger)
	if err != nil {
		return nil, err
	}

	// Results gathered after cancellation are engine kills, not outcomes.
	if ctxErr := ctx.Err(); ctxErr != nil {
		c.logger.Error().Err(ctxErr).Msg("Batch interrupted; no summary recorded.")
		return nil, fmt.Errorf("batch interrupted: %w", ctxErr)
	}

	for _, r := range results {
		if s, ok := r.(domain.Success); ok {
			c.logger.Debug().
				Str("file", filepath.Base(s.InputPath)).
				Int("pages", s.Pages).
				Int("text_chars", s.TextChars).
				Dur("elapsed", s.Duration).
				Msg("converted")
		}
	}

	summary := domain.Summarize(outputDir, results)
	summary.Duration = time.Since(started)
	c.Report(summary)

	if c.recorder != nil {
		run := &domain.Run{
			ID:         uuid.New(),
			InputDir:   opts.InputDir,
			OutputDir:  outputDir,
			Language:   opts.Language,
			ForceOCR:   opts.ForceOCR,
			StartedAt:  started,
			FinishedAt: time.Now(),
			Total:      summary.Total,
			Succeeded:  summary.Succeeded,
			Failed:     summary.Failed(),
		}
		if err := c.recorder.RecordRun(ctx, run, results); err != nil {
			c.logger.Warn().Err(err).Msg("Could not record run in journal")
		}
	}

	return summary, nil
}

// Report logs the human-readable summary.
func (c *Coordinator) Report(s *domain.Summary) {
	c.logger.Info().Msg("--- OCR Processing Summary ---")
	c.logger.Info().Msgf("Output folder: %s", s.OutputDir)
	c.logger.Info().Msgf("Total PDF files found: %d", s.Total)
	c.logger.Info().Msgf("Successfully Processed: %d file(s).", s.Succeeded)

	if s.AllSucceeded() {
		c.logger.Info().Msg("All found PDF files processed successfully!")
	} else {
		c.logger.Warn().Msgf("Failed to OCR: %d file(s). Details below:", s.Failed())
		for _, line := range s.Descriptions() {
			c.logger.Warn().Msg(line)
		}
	}

	c.logger.Info().Dur("elapsed", s.Duration).Msg("Batch finished.")
}

// OutputDir is the fixed-name subdirectory of the input directory.
func OutputDir(opts Options) string {
	return filepath.Join(opts.InputDir, opts.OutputDirName)
}

// PrepareOutputDir creates the output directory, reusing it if present.
func PrepareOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.IOError("create output directory", err)
	}
	return nil
}

// Discover lists regular files directly inside dir whose extension matches
// ext case-insensitively, sorted by name.
func Discover(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, domain.IOError("read input directory", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if entry.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		} else if !entry.Type().IsRegular() {
			continue
		}
		files = append(files, path)
	}
	return files, nil
}

// BuildTasks creates one Task per file, writing into outputDir with the
// marker prefix prepended to the original file name.
func BuildTasks(files []string, outputDir string, opts Options) []domain.Task {
	tasks := make([]domain.Task, 0, len(files))
	for _, f := range files {
		tasks = append(tasks, domain.Task{
			InputPath:  f,
			OutputPath: filepath.Join(outputDir, opts.OutputPrefix+filepath.Base(f)),
			ForceOCR:   opts.ForceOCR,
			Language:   opts.Language,
		})
	}
	return tasks
}

func domainDetail(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
