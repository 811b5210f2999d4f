package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/spherical/ocr-batch/cmd/ocr-batch/ui"
	"github.com/spherical/ocr-batch/internal/config"
	"github.com/spherical/ocr-batch/internal/journal"
	"github.com/spherical/ocr-batch/internal/observability"
)

// loadConfig reads the config file, applies explicitly set flags on top and
// validates the merged result.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Read(opts.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("journal") {
		cfg.Journal.Path = opts.journalPath
	}
	if flags.Changed("log-format") {
		cfg.Observability.LogFormat = opts.logFormat
	}
	if opts.verbose {
		cfg.Observability.LogLevel = "debug"
	}
	if flags.Changed("force-ocr") {
		cfg.OCR.ForceOCR = opts.forceOCR
	}
	if flags.Changed("workers") {
		cfg.Batch.Workers = opts.workers
	}
	if flags.Changed("language") {
		cfg.OCR.Language = opts.language
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config, opts *rootOptions) *observability.Logger {
	return observability.NewLogger(observability.LogConfig{
		Level:   cfg.Observability.LogLevel,
		Format:  cfg.Observability.LogFormat,
		Output:  cmd.ErrOrStderr(),
		NoColor: opts.noColor || !isTerminal(cmd.ErrOrStderr()),
	})
}

func newUI(cmd *cobra.Command, opts *rootOptions) *ui.UI {
	return ui.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.noColor || !isTerminal(cmd.OutOrStdout()))
}

func openJournal(ctx context.Context, cfg *config.Config) (*journal.Store, error) {
	if cfg.Journal.Path == "" {
		return nil, fmt.Errorf("the run journal is disabled; set journal.path, OCRBATCH_JOURNAL_PATH or --journal")
	}
	return journal.Open(ctx, cfg.Journal.Path)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && ui.IsTerminal(f)
}
