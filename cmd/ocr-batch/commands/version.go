package commands

import (
	"github.com/spf13/cobra"

	"github.com/spherical/ocr-batch/internal/config"
	"github.com/spherical/ocr-batch/internal/ocr"
)

// Version is set at build time with -ldflags "-X .../commands.Version=...".
var Version = "0.1.0"

func newVersionCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ocr-batch and ocrmypdf versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newUI(cmd, root)
			out.KeyValue("ocr-batch", Version)

			cfg, err := config.Load(root.configFile)
			if err != nil {
				cfg = config.DefaultConfig()
			}
			engine := ocr.NewOCRMyPDF(ocr.Options{Path: cfg.OCR.EnginePath})
			if !engine.Available() {
				out.Warning("%s is not installed or not on PATH", cfg.OCR.EnginePath)
				return nil
			}
			v, err := engine.Version(cmd.Context())
			if err != nil {
				out.Warning("%s did not report a version: %v", cfg.OCR.EnginePath, err)
				return nil
			}
			out.KeyValue("ocrmypdf", v)
			return nil
		},
	}
}
