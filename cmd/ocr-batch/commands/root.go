package commands

import (
	"github.com/spf13/cobra"

	"github.com/spherical/ocr-batch/cmd/ocr-batch/ui"
)

// rootOptions holds flag values shared by all subcommands.
type rootOptions struct {
	configFile  string
	journalPath string
	logFormat   string
	verbose     bool
	noColor     bool

	// batch flags
	forceOCR   bool
	workers    int
	language   string
	noProgress bool
}

// NewRootCmd builds the ocr-batch command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ocr-batch [flags] <input_folder>",
		Short: "Batch OCR every PDF in a folder",
		Long: `ocr-batch runs OCR on every PDF directly inside the input folder, in parallel,
and writes searchable copies to a subfolder named OCRed_PDFs_. Each output keeps
the original file name with an "[OCR] " prefix. Originals are never modified.

The OCR itself is done by ocrmypdf, which must be installed and on PATH.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, args[0])
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", "", "config file path")
	pf.StringVar(&opts.journalPath, "journal", "", "SQLite run journal path (empty disables the journal)")
	pf.StringVar(&opts.logFormat, "log-format", "", "log format: console or json")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	f := cmd.Flags()
	f.BoolVar(&opts.forceOCR, "force-ocr", false, "OCR pages even if they already contain text")
	f.IntVarP(&opts.workers, "workers", "w", 0, "number of files processed in parallel (default: CPU count - 2, at least 1)")
	f.StringVarP(&opts.language, "language", "l", "", "OCR language(s) for tesseract, e.g. 'eng' or 'eng+fil' (default \"eng\")")
	f.BoolVar(&opts.noProgress, "no-progress", false, "disable the progress bar")

	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newVersionCmd(opts))

	return cmd
}

// Execute runs the root command and prints any error. There is no graceful
// shutdown: an interrupt terminates the process and its engine children.
func Execute() error {
	cmd := NewRootCmd()
	err := cmd.Execute()
	if err != nil {
		ui.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), !isTerminal(cmd.ErrOrStderr())).Error("Error: %v", err)
	}
	return err
}
