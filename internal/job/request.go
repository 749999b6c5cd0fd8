package job

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"streamtofile/internal/services"
)

// Kind selects between merged video downloads and audio extraction.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

const (
	DefaultVideoQuality = "1080"
	DefaultAudioFormat  = "mp3"
)

var (
	safeToken    = regexp.MustCompile(`^[A-Za-z0-9.]+$`)
	numericToken = regexp.MustCompile(`^[0-9]+$`)
)

// AudioFormats lists the --audio-format values yt-dlp accepts.
var AudioFormats = []string{"best", "aac", "alac", "flac", "m4a", "mp3", "opus", "vorbis", "wav"}

// Request is one client conversion request.
type Request struct {
	URL     string `json:"url"`
	Kind    Kind   `json:"type"`
	Quality string `json:"quality"`
	Bitrate string `json:"bitrate,omitempty"`
}

// ParseKind maps the wire "type" field onto a Kind. Anything other than
// "audio" is treated as video.
func ParseKind(value string) Kind {
	if strings.EqualFold(strings.TrimSpace(value), string(KindAudio)) {
		return KindAudio
	}
	return KindVideo
}

// Normalize trims fields and fills kind-specific defaults.
func (r Request) Normalize() Request {
	r.URL = strings.TrimSpace(r.URL)
	r.Kind = ParseKind(string(r.Kind))
	r.Quality = strings.ToLower(strings.TrimSpace(r.Quality))
	r.Bitrate = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(r.Bitrate)), "k")
	if r.Quality == "" {
		if r.Kind == KindAudio {
			r.Quality = DefaultAudioFormat
		} else {
			r.Quality = DefaultVideoQuality
		}
	}
	if r.Kind == KindVideo {
		r.Quality = strings.TrimSuffix(r.Quality, "p")
		r.Bitrate = ""
	}
	return r
}

// Validate rejects requests that must never reach the conversion tool. It
// expects a normalized request.
func (r Request) Validate() error {
	if r.URL == "" {
		return invalid("URL is required")
	}
	parsed, err := url.Parse(r.URL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return invalid("url must be an absolute http(s) URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return invalid("url must use http or https")
	}
	if !safeToken.MatchString(r.Quality) {
		return invalid(fmt.Sprintf("quality %q contains unsupported characters", r.Quality))
	}
	switch r.Kind {
	case KindVideo:
		height, err := strconv.Atoi(r.Quality)
		if err != nil || height <= 0 {
			return invalid(fmt.Sprintf("video quality %q must be a height such as 720", r.Quality))
		}
	case KindAudio:
		if !knownAudioFormat(r.Quality) {
			return invalid(fmt.Sprintf("audio format %q must be one of %s", r.Quality, strings.Join(AudioFormats, ", ")))
		}
		if r.Bitrate != "" && !numericToken.MatchString(r.Bitrate) {
			return invalid(fmt.Sprintf("bitrate %q must be a number of kbit/s", r.Bitrate))
		}
	default:
		return invalid(fmt.Sprintf("unknown type %q", r.Kind))
	}
	return nil
}

func knownAudioFormat(value string) bool {
	for _, format := range AudioFormats {
		if format == value {
			return true
		}
	}
	return false
}

func invalid(message string) error {
	return services.Wrap(services.ErrValidation, "request", "validate", message, nil)
}
