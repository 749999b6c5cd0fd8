package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"streamtofile/internal/logging"
	"streamtofile/internal/scratch"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var (
		olderThan time.Duration
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove stale artifacts left in the scratch directory",
		Long: "Deletes scratch entries older than scratch.stale_after_minutes. A running\n" +
			"server sweeps on its own schedule and holds the scratch lock, so this\n" +
			"command refuses to run alongside it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			maxAge := cfg.StaleAfter()
			if olderThan > 0 {
				// Anything younger may belong to a conversion still running.
				if olderThan <= cfg.JobTimeout() {
					return fmt.Errorf("--older-than must exceed the job timeout (%s)", cfg.JobTimeout())
				}
				maxAge = olderThan
			}
			out := cmd.OutOrStdout()

			if dryRun {
				entries, err := scratch.ListEntries(cfg.Paths.ScratchDir)
				if err != nil {
					return err
				}
				cutoff := time.Now().Add(-maxAge)
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					if entry.ModTime.After(cutoff) {
						continue
					}
					rows = append(rows, []string{entry.Name, entry.ModTime.Format(time.RFC3339), strconv.FormatInt(entry.Size, 10)})
				}
				if len(rows) == 0 {
					fmt.Fprintln(out, "No stale scratch entries")
					return nil
				}
				fmt.Fprintln(out, renderTable([]string{"Entry", "Modified", "Bytes"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight}))
				return nil
			}

			lock, err := scratch.AcquireLock(cfg.Paths.ScratchDir)
			if err != nil {
				if errors.Is(err, scratch.ErrLocked) {
					return fmt.Errorf("%w; the running server sweeps every %s", err, cfg.SweepInterval())
				}
				return err
			}
			defer lock.Release()

			logger, err := ctx.cliLogger(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			result := scratch.CleanStale(cmd.Context(), cfg.Paths.ScratchDir, maxAge, logging.NewComponentLogger(logger, "sweep"))
			fmt.Fprintf(out, "Removed %d stale entr%s\n", len(result.Removed), plural(len(result.Removed), "y", "ies"))
			for _, cleanupErr := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed to remove %s: %v\n", cleanupErr.Path, cleanupErr.Error)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d entries could not be removed", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Override the stale threshold (e.g. 2h)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List stale entries without deleting them")
	return cmd
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
