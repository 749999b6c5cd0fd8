package ytdlp

import (
	"fmt"
	"path/filepath"

	"streamtofile/internal/job"
)

// ExtensionPlaceholder is yt-dlp's output template token for the chosen extension.
const ExtensionPlaceholder = "%(ext)s"

// BuildOptions carries the server-wide knobs that shape every invocation.
type BuildOptions struct {
	UserAgent           string
	MergeFormat         string
	DefaultAudioBitrate string
	FFmpegLocation      string
}

// OutputTemplate returns the scratch path template for a job: <dir>/<jobID>.%(ext)s.
func OutputTemplate(dir, jobID string) string {
	return filepath.Join(dir, jobID+"."+ExtensionPlaceholder)
}

// BuildArgs assembles the yt-dlp argument vector for req. The request must
// already be normalized and validated; the URL is always the final token and
// is preceded by "--" so it can never be read as an option.
func BuildArgs(req job.Request, outputTemplate string, opts BuildOptions) []string {
	args := []string{
		"-o", outputTemplate,
		"--no-playlist",
		"--no-progress",
		"--user-agent", opts.UserAgent,
		"--print", "after_move:filepath",
		"--no-simulate",
	}

	switch req.Kind {
	case job.KindAudio:
		bitrate := req.Bitrate
		if bitrate == "" {
			bitrate = opts.DefaultAudioBitrate
		}
		args = append(args,
			"-x",
			"--audio-format", req.Quality,
			"--audio-quality", "0",
			"--postprocessor-args", fmt.Sprintf("AudioConvertor:-b:a %sk", bitrate),
		)
	default:
		args = append(args,
			"-f", fmt.Sprintf("bestvideo[height<=%[1]s]+bestaudio/best[height<=%[1]s]", req.Quality),
			"--merge-output-format", opts.MergeFormat,
		)
	}

	if opts.FFmpegLocation != "" {
		args = append(args, "--ffmpeg-location", opts.FFmpegLocation)
	}

	return append(args, "--", req.URL)
}
