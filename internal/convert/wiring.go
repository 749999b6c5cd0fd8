package convert

import (
	"fmt"
	"log/slog"

	"streamtofile/internal/config"
	"streamtofile/internal/scratch"
	"streamtofile/internal/services/ytdlp"
)

// NewFromConfig builds a Service backed by the real yt-dlp binary and the
// configured scratch directory.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	dir, err := scratch.Open(cfg.Paths.ScratchDir, logger)
	if err != nil {
		return nil, err
	}
	client, err := ytdlp.New(cfg.YTDLP.Binary, cfg.JobTimeout(),
		ytdlp.WithKillGrace(cfg.KillGrace()),
		ytdlp.WithStderrLimit(cfg.YTDLP.StderrLimitBytes),
		ytdlp.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("init yt-dlp client: %w", err)
	}
	return NewService(client, dir, BuildOptionsFromConfig(cfg),
		WithLogger(logger),
		WithTimeout(cfg.JobTimeout()),
	)
}

// BuildOptionsFromConfig extracts the fixed yt-dlp knobs from cfg.
func BuildOptionsFromConfig(cfg *config.Config) ytdlp.BuildOptions {
	return ytdlp.BuildOptions{
		UserAgent:           cfg.YTDLP.UserAgent,
		MergeFormat:         cfg.YTDLP.MergeFormat,
		DefaultAudioBitrate: cfg.YTDLP.DefaultAudioBitrate,
		FFmpegLocation:      cfg.YTDLP.FFmpegLocation,
	}
}
