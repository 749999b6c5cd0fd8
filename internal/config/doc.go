// Package config loads, normalizes, and validates streamtofile configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// STREAMTOFILE_YTDLP_BINARY. The Config type centralizes every knob the server
// and CLI need so the scratch directory, listener, and yt-dlp limits are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
