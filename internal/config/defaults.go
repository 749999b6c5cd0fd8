package config

const (
	defaultConfigPath           = "~/.config/streamtofile/config.toml"
	defaultScratchDir           = "~/.local/share/streamtofile/scratch"
	defaultLogDir               = "~/.local/share/streamtofile/logs"
	defaultLogRetentionDays     = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultBind                 = "127.0.0.1:3000"
	defaultBasePath             = "/StreamToFile"
	defaultReadHeaderTimeout    = 10
	defaultReadTimeout          = 30
	defaultIdleTimeout          = 60
	defaultShutdownTimeout      = 15
	defaultYTDLPBinary          = "yt-dlp"
	defaultYTDLPTimeout         = 600
	defaultKillGrace            = 5
	defaultMergeFormat          = "mp4"
	defaultAudioBitrate         = "192"
	defaultStderrLimitBytes     = 64 * 1024
	defaultFilenamePrefix       = "download"
	defaultStaleAfterMinutes    = 60
	defaultSweepIntervalMinutes = 10

	// DefaultUserAgent is the desktop browser identity presented to media hosts.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir: defaultScratchDir,
			LogDir:     defaultLogDir,
		},
		Server: Server{
			Bind:                   defaultBind,
			BasePath:               defaultBasePath,
			ReadHeaderTimeout:      defaultReadHeaderTimeout,
			ReadTimeout:            defaultReadTimeout,
			IdleTimeout:            defaultIdleTimeout,
			ShutdownTimeoutSeconds: defaultShutdownTimeout,
		},
		YTDLP: YTDLP{
			Binary:              defaultYTDLPBinary,
			TimeoutSeconds:      defaultYTDLPTimeout,
			KillGraceSeconds:    defaultKillGrace,
			UserAgent:           DefaultUserAgent,
			MergeFormat:         defaultMergeFormat,
			DefaultAudioBitrate: defaultAudioBitrate,
			StderrLimitBytes:    defaultStderrLimitBytes,
		},
		Delivery: Delivery{
			FilenamePrefix: defaultFilenamePrefix,
		},
		Scratch: Scratch{
			StaleAfterMinutes:    defaultStaleAfterMinutes,
			SweepIntervalMinutes: defaultSweepIntervalMinutes,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
