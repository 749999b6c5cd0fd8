package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ResolveFFmpeg reports the ffmpeg binary yt-dlp will use for merging and
// audio extraction.
//
// yt-dlp's --ffmpeg-location accepts either the binary itself or the
// directory containing it. When location is empty yt-dlp resolves "ffmpeg"
// from PATH, and so does this helper.
func ResolveFFmpeg(location string) Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Used by yt-dlp to merge streams and extract audio",
	}

	location = strings.TrimSpace(location)
	if location != "" {
		candidate := location
		if info, err := os.Stat(location); err == nil && info.IsDir() {
			candidate = filepath.Join(location, "ffmpeg")
		}
		result.Command = candidate
		info, err := os.Stat(candidate)
		if err != nil {
			result.Detail = fmt.Sprintf("ffmpeg_location %q not usable: %v", location, err)
			return result
		}
		if !isExecutable(info) {
			result.Detail = fmt.Sprintf("%q is not executable", candidate)
			return result
		}
		result.Available = true
		return result
	}

	if ffmpegPath, err := exec.LookPath("ffmpeg"); err == nil {
		result.Command = ffmpegPath
		result.Available = true
		return result
	}

	result.Command = "ffmpeg"
	result.Detail = `binary "ffmpeg" not found`
	return result
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
