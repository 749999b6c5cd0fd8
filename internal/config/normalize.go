package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnvOverrides()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeYTDLP()
	c.normalizeDelivery()
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnvOverrides() {
	if value, ok := lookupTrimmed("STREAMTOFILE_SCRATCH_DIR"); ok {
		c.Paths.ScratchDir = value
	}
	if value, ok := lookupTrimmed("STREAMTOFILE_BIND"); ok {
		c.Server.Bind = value
	}
	if value, ok := lookupTrimmed("STREAMTOFILE_YTDLP_BINARY"); ok {
		c.YTDLP.Binary = value
	}
}

func lookupTrimmed(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.YTDLP.FFmpegLocation) != "" {
		if c.YTDLP.FFmpegLocation, err = expandPath(c.YTDLP.FFmpegLocation); err != nil {
			return fmt.Errorf("ytdlp.ffmpeg_location: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	base := strings.TrimSpace(c.Server.BasePath)
	base = strings.TrimRight(base, "/")
	if base != "" && !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	c.Server.BasePath = base
}

func (c *Config) normalizeYTDLP() {
	c.YTDLP.Binary = strings.TrimSpace(c.YTDLP.Binary)
	if c.YTDLP.Binary == "" {
		c.YTDLP.Binary = defaultYTDLPBinary
	}
	if strings.HasPrefix(c.YTDLP.Binary, "~") {
		if expanded, err := expandPath(c.YTDLP.Binary); err == nil {
			c.YTDLP.Binary = expanded
		}
	}
	c.YTDLP.UserAgent = strings.TrimSpace(c.YTDLP.UserAgent)
	if c.YTDLP.UserAgent == "" {
		c.YTDLP.UserAgent = DefaultUserAgent
	}
	c.YTDLP.MergeFormat = strings.ToLower(strings.TrimSpace(c.YTDLP.MergeFormat))
	if c.YTDLP.MergeFormat == "" {
		c.YTDLP.MergeFormat = defaultMergeFormat
	}
	c.YTDLP.DefaultAudioBitrate = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(c.YTDLP.DefaultAudioBitrate)), "k")
	if c.YTDLP.DefaultAudioBitrate == "" {
		c.YTDLP.DefaultAudioBitrate = defaultAudioBitrate
	}
	if c.YTDLP.StderrLimitBytes == 0 {
		c.YTDLP.StderrLimitBytes = defaultStderrLimitBytes
	}
}

func (c *Config) normalizeDelivery() {
	c.Delivery.FilenamePrefix = strings.TrimSpace(c.Delivery.FilenamePrefix)
	if c.Delivery.FilenamePrefix == "" {
		c.Delivery.FilenamePrefix = defaultFilenamePrefix
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
