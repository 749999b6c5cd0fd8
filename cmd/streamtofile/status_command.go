package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"streamtofile/internal/api"
	"streamtofile/internal/config"
	"streamtofile/internal/deps"
	"streamtofile/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server, dependency, and directory status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			checkCtx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			server, serverErr := fetchServerStatus(checkCtx, cfg)
			dependencies := preflight.CheckSystemDeps(checkCtx, cfg)
			directories := []preflight.Result{
				preflight.CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir),
				preflight.CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
			}

			if asJSON {
				payload := map[string]any{
					"configPath":   ctx.configPath,
					"serverUrl":    serverURL(cfg),
					"checks":       api.FromChecks(directories),
					"dependencies": api.FromDependencies(dependencies),
				}
				if server != nil {
					payload["server"] = server
				}
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("Server", colorize)
			lines = append(lines, serverLines(cfg, server, serverErr, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(dependencies, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Directories", colorize)...)
			for _, dir := range directories {
				kind := statusOK
				if !dir.Passed {
					kind = statusError
				}
				lines = append(lines, renderStatusLine(dir.Name, kind, dir.Detail, colorize))
			}
			fmt.Fprintln(out, strings.Join(lines, "\n"))

			if len(dependencies) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, dependencyTable(dependencies))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")
	return cmd
}

func serverURL(cfg *config.Config) string {
	return "http://" + cfg.Server.Bind + cfg.Server.BasePath
}

// fetchServerStatus asks a running server for its status over HTTP.
func fetchServerStatus(ctx context.Context, cfg *config.Config) (*api.ServerStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL(cfg)+"/api/status", nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status endpoint returned %s", resp.Status)
	}
	var status api.ServerStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}

func serverLines(cfg *config.Config, status *api.ServerStatus, err error, colorize bool) []string {
	if status == nil {
		detail := "Not running"
		if err != nil {
			detail = fmt.Sprintf("Not reachable at %s", serverURL(cfg))
		}
		return []string{renderStatusLine("Server", statusWarn, detail, colorize)}
	}
	lines := []string{
		renderStatusLine("Server", statusOK, fmt.Sprintf("Running (pid %d) at %s", status.PID, serverURL(cfg)), colorize),
		renderStatusLine("In-flight jobs", statusInfo, strconv.FormatInt(status.InFlightJobs, 10), colorize),
	}
	if status.StartedAt != "" {
		lines = append(lines, renderStatusLine("Started", statusInfo, status.StartedAt, colorize))
	}
	if sweep := status.LastSweep; sweep != nil {
		kind := statusOK
		if sweep.Errors > 0 {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine("Last sweep", kind,
			fmt.Sprintf("%s (removed %d, errors %d)", sweep.At, sweep.Removed, sweep.Errors), colorize))
	}
	return lines
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	missing := make([]string, 0)
	for _, dep := range statuses {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
		if !dep.Optional {
			missing = append(missing, dep.Name)
		}
	}
	summaryKind, summary := statusOK, "All required dependencies available"
	if len(missing) > 0 {
		summaryKind = statusError
		summary = fmt.Sprintf("Missing: %s", strings.Join(missing, ", "))
	}
	return append([]string{renderStatusLine("Summary", summaryKind, summary, colorize)}, lines...)
}

func dependencyTable(statuses []deps.Status) string {
	rows := make([][]string, 0, len(statuses))
	for _, dep := range statuses {
		version := dep.Version
		if version == "" {
			version = "-"
		}
		rows = append(rows, []string{dep.Name, yesNo(dep.Available), version, dep.Command})
	}
	return renderTable([]string{"Dependency", "Available", "Version", "Command"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft})
}
