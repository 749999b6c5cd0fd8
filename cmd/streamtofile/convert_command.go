package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"streamtofile/internal/config"
	"streamtofile/internal/convert"
	"streamtofile/internal/delivery"
	"streamtofile/internal/job"
	"streamtofile/internal/services"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		kind      string
		quality   string
		bitrate   string
		outputDir string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "convert <url>",
		Short: "Convert one URL locally and save the result",
		Long: "Runs the same pipeline the server uses, but moves the finished file\n" +
			"into --output instead of streaming it over HTTP.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.cliLogger(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			target, err := config.ExpandPath(strings.TrimSpace(outputDir))
			if err != nil {
				return fmt.Errorf("resolve output directory: %w", err)
			}

			svc, err := convert.NewFromConfig(cfg, logger)
			if err != nil {
				return err
			}
			req := job.Request{URL: args[0], Kind: job.ParseKind(kind), Quality: quality, Bitrate: bitrate}
			result, err := svc.Convert(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := result.Err(); err != nil {
				return conversionError(err)
			}

			mgr := delivery.NewManager(cfg.Delivery.FilenamePrefix, logger)
			saved, err := mgr.SaveTo(target, result.Job.ID, result.Artifact)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, map[string]any{
					"jobId":   result.Job.ID,
					"path":    saved,
					"bytes":   result.Artifact.Size,
					"elapsed": result.Job.Elapsed().Round(time.Millisecond).String(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", saved)
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "type", "t", string(job.KindVideo), "Conversion type: video or audio")
	cmd.Flags().StringVarP(&quality, "quality", "q", "", "Video height ceiling (e.g. 720) or audio format (e.g. mp3)")
	cmd.Flags().StringVarP(&bitrate, "bitrate", "b", "", "Audio bitrate in kbit/s (audio only)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory to save the converted file into")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

// conversionError folds the captured tool diagnostic into the returned error
// so the CLI prints it.
func conversionError(err error) error {
	if errors.Is(err, services.ErrCanceled) {
		return fmt.Errorf("conversion canceled")
	}
	diag, ok := services.DiagnosticFrom(err)
	if !ok {
		return err
	}
	return fmt.Errorf("%w\n%s", err, strings.TrimSpace(diag))
}
