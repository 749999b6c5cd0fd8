package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
)

var bitratePattern = regexp.MustCompile(`^[0-9]+$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateYTDLP(); err != nil {
		return err
	}
	if err := c.validateScratch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q is not a host:port address: %w", c.Server.Bind, err)
	}
	if strings.ContainsAny(c.Server.BasePath, " ?#") {
		return errors.New("server.base_path must be a plain URL path")
	}
	return ensurePositiveMap(map[string]int{
		"server.read_header_timeout": c.Server.ReadHeaderTimeout,
		"server.read_timeout":        c.Server.ReadTimeout,
		"server.idle_timeout":        c.Server.IdleTimeout,
		"server.shutdown_timeout":    c.Server.ShutdownTimeoutSeconds,
	})
}

func (c *Config) validateYTDLP() error {
	if err := ensurePositiveMap(map[string]int{
		"ytdlp.timeout_seconds":    c.YTDLP.TimeoutSeconds,
		"ytdlp.kill_grace_seconds": c.YTDLP.KillGraceSeconds,
		"ytdlp.stderr_limit_bytes": c.YTDLP.StderrLimitBytes,
	}); err != nil {
		return err
	}
	if !bitratePattern.MatchString(c.YTDLP.DefaultAudioBitrate) {
		return fmt.Errorf("ytdlp.default_audio_bitrate %q must be a number of kbit/s", c.YTDLP.DefaultAudioBitrate)
	}
	switch c.YTDLP.MergeFormat {
	case "mp4", "mkv", "webm", "mov", "flv", "avi":
	default:
		return fmt.Errorf("ytdlp.merge_format %q is not a container yt-dlp can merge into", c.YTDLP.MergeFormat)
	}
	return nil
}

func (c *Config) validateScratch() error {
	if err := ensurePositiveMap(map[string]int{
		"scratch.stale_after_minutes":    c.Scratch.StaleAfterMinutes,
		"scratch.sweep_interval_minutes": c.Scratch.SweepIntervalMinutes,
	}); err != nil {
		return err
	}
	// A sweep must never remove the artifact of a job that is still running.
	if c.StaleAfter() <= c.JobTimeout() {
		return errors.New("scratch.stale_after_minutes must exceed ytdlp.timeout_seconds")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
