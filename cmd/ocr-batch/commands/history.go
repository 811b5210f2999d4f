package commands

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/spherical/ocr-batch/cmd/ocr-batch/ui"
	"github.com/spherical/ocr-batch/internal/journal"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent batch runs from the run journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			store, err := openJournal(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			out := newUI(cmd, root)

			if runID != "" {
				id, err := uuid.Parse(runID)
				if err != nil {
					return fmt.Errorf("invalid run id %q: %w", runID, err)
				}
				entries, err := store.Results(ctx, id)
				if err != nil {
					return err
				}
				table := make([][]string, 0, len(entries))
				failed := 0
				for _, e := range entries {
					if e.Status == journal.StatusFailure {
						failed++
					}
					table = append(table, []string{strconv.Itoa(e.Seq + 1), filepath.Base(e.InputPath), e.Status, e.Message})
				}
				out.Table([]string{"#", "FILE", "STATUS", "MESSAGE"}, table)
				if failed > 0 {
					out.Warning("%d of %d file(s) failed", failed, len(entries))
				} else {
					out.Success("All %d file(s) succeeded", len(entries))
				}
				return nil
			}

			runs, err := store.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				out.Info("No runs recorded yet.")
				return nil
			}

			table := make([][]string, 0, len(runs))
			for _, r := range runs {
				table = append(table, []string{
					r.ID.String(),
					r.StartedAt.Local().Format(time.DateTime),
					r.InputDir,
					strconv.Itoa(r.Total),
					strconv.Itoa(r.Succeeded),
					strconv.Itoa(r.Failed),
					r.Language,
					ui.FormatDuration(r.FinishedAt.Sub(r.StartedAt)),
				})
			}
			out.Table([]string{"RUN", "STARTED", "INPUT", "TOTAL", "OK", "FAILED", "LANG", "TOOK"}, table)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "show per-file results of one run")

	return cmd
}
