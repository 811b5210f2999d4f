package commands

import (
	"github.com/spf13/cobra"

	"github.com/spherical/ocr-batch/cmd/ocr-batch/ui"
	"github.com/spherical/ocr-batch/internal/batch"
	"github.com/spherical/ocr-batch/internal/domain"
	"github.com/spherical/ocr-batch/internal/ocr"
	"github.com/spherical/ocr-batch/internal/pdf"
	"github.com/spherical/ocr-batch/internal/worker"
)

func runBatch(cmd *cobra.Command, opts *rootOptions, inputDir string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg, opts).WithOperation("batch")
	interactive := !opts.noProgress && isTerminal(cmd.ErrOrStderr())

	engine := ocr.NewOCRMyPDF(ocr.Options{
		Path:        cfg.OCR.EnginePath,
		Deskew:      cfg.OCR.Deskew,
		JobsPerFile: cfg.OCR.JobsPerFile,
		ExtraArgs:   cfg.OCR.ExtraArgs,
	})

	if !engine.Available() {
		logger.Warn().Msgf("OCR engine %q is not installed or not on PATH; every file will fail", cfg.OCR.EnginePath)
	} else {
		var spin *ui.Spinner
		if interactive {
			spin = ui.NewSpinner(cmd.ErrOrStderr(), "Checking OCR engine...")
			spin.Start()
		}
		version, verr := engine.Version(ctx)
		if spin != nil {
			spin.Stop()
		}
		if verr != nil {
			logger.Warn().Err(verr).Msgf("OCR engine %q did not report a version", cfg.OCR.EnginePath)
		} else {
			logger.Debug().Str("engine", cfg.OCR.EnginePath).Str("version", version).Msg("OCR engine found")
		}
	}
	if cfg.OCR.JobsPerFile == 1 {
		logger.Info().Msg("Each OCR will use a single core.")
	}

	var runnerOpts []worker.Option
	if cfg.OCR.Preflight {
		runnerOpts = append(runnerOpts, worker.WithInspector(pdf.NewInspector()))
	}
	if cfg.OCR.VerifyOutput {
		runnerOpts = append(runnerOpts, worker.WithProber(pdf.NewTextProber()))
	}
	runner := worker.NewRunner(engine, runnerOpts...)

	var coordOpts []batch.Option
	if interactive {
		coordOpts = append(coordOpts, batch.WithProgress(func(total int) domain.Progress {
			return ui.NewProgressBar(cmd.ErrOrStderr(), total, "OCR")
		}))
	}
	if cfg.Journal.Path != "" {
		store, err := openJournal(ctx, cfg)
		if err != nil {
			logger.Warn().Err(err).Msg("Run journal unavailable; continuing without it")
		} else {
			defer store.Close()
			coordOpts = append(coordOpts, batch.WithRecorder(store))
		}
	}

	coordinator := batch.NewCoordinator(runner, logger, coordOpts...)
	_, err = coordinator.Run(ctx, batch.Options{
		InputDir:      inputDir,
		OutputDirName: cfg.Batch.OutputDirName,
		OutputPrefix:  cfg.Batch.OutputPrefix,
		Extension:     cfg.Batch.Extension,
		ForceOCR:      cfg.OCR.ForceOCR,
		Language:      cfg.OCR.Language,
		Workers:       cfg.EffectiveWorkers(),
	})
	return err
}
