package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ScratchDir string `toml:"scratch_dir"`
	LogDir     string `toml:"log_dir"`
}

// Server contains HTTP listener configuration.
type Server struct {
	Bind                   string `toml:"bind"`
	BasePath               string `toml:"base_path"`
	ReadHeaderTimeout      int    `toml:"read_header_timeout"`
	ReadTimeout            int    `toml:"read_timeout"`
	IdleTimeout            int    `toml:"idle_timeout"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout"`
}

// YTDLP contains configuration for the yt-dlp subprocess.
type YTDLP struct {
	Binary              string `toml:"binary"`
	FFmpegLocation      string `toml:"ffmpeg_location"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
	KillGraceSeconds    int    `toml:"kill_grace_seconds"`
	UserAgent           string `toml:"user_agent"`
	MergeFormat         string `toml:"merge_format"`
	DefaultAudioBitrate string `toml:"default_audio_bitrate"`
	StderrLimitBytes    int    `toml:"stderr_limit_bytes"`
}

// Delivery contains configuration for streaming artifacts to clients.
type Delivery struct {
	FilenamePrefix string `toml:"filename_prefix"`
}

// Scratch contains configuration for stale artifact sweeping.
type Scratch struct {
	StaleAfterMinutes    int `toml:"stale_after_minutes"`
	SweepIntervalMinutes int `toml:"sweep_interval_minutes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for streamtofile.
//
// Configuration sections by subsystem:
//   - Paths: scratch and log directories
//   - Server: HTTP bind address, mount path, and timeouts
//   - YTDLP: conversion tool location, limits, and fixed arguments
//   - Delivery: download filename shaping
//   - Scratch: stale artifact sweeping
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	Server   Server   `toml:"server"`
	YTDLP    YTDLP    `toml:"ytdlp"`
	Delivery Delivery `toml:"delivery"`
	Scratch  Scratch  `toml:"scratch"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("streamtofile.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the scratch and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ScratchDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JobTimeout returns the wall-clock limit for one conversion subprocess.
func (c *Config) JobTimeout() time.Duration {
	return time.Duration(c.YTDLP.TimeoutSeconds) * time.Second
}

// KillGrace returns how long a terminated process group may linger before SIGKILL.
func (c *Config) KillGrace() time.Duration {
	return time.Duration(c.YTDLP.KillGraceSeconds) * time.Second
}

// StaleAfter returns the age beyond which scratch artifacts are considered orphaned.
func (c *Config) StaleAfter() time.Duration {
	return time.Duration(c.Scratch.StaleAfterMinutes) * time.Minute
}

// SweepInterval returns how often the server sweeps the scratch directory.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Scratch.SweepIntervalMinutes) * time.Minute
}

// ShutdownTimeout bounds graceful HTTP shutdown.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// FFmpegBinary returns the ffmpeg executable used by yt-dlp for merging and extraction.
func (c *Config) FFmpegBinary() string {
	if strings.TrimSpace(c.YTDLP.FFmpegLocation) != "" {
		info, err := os.Stat(c.YTDLP.FFmpegLocation)
		if err == nil && info.IsDir() {
			return filepath.Join(c.YTDLP.FFmpegLocation, "ffmpeg")
		}
		return c.YTDLP.FFmpegLocation
	}
	return "ffmpeg"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
