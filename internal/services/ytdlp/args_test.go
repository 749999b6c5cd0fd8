package ytdlp_test

import (
	"path/filepath"
	"slices"
	"testing"

	"streamtofile/internal/job"
	"streamtofile/internal/services/ytdlp"
)

var testOptions = ytdlp.BuildOptions{
	UserAgent:           "TestAgent/1.0",
	MergeFormat:         "mp4",
	DefaultAudioBitrate: "192",
}

func valueAfter(t *testing.T, args []string, flag string) string {
	t.Helper()
	idx := slices.Index(args, flag)
	if idx < 0 || idx+1 >= len(args) {
		t.Fatalf("flag %s missing from %q", flag, args)
	}
	return args[idx+1]
}

func TestBuildArgsAudio(t *testing.T) {
	req := job.Request{URL: "https://example.com/watch?v=abc", Kind: job.KindAudio, Quality: "mp3", Bitrate: "320"}
	args := ytdlp.BuildArgs(req, "/scratch/id.%(ext)s", testOptions)

	if !slices.Contains(args, "-x") {
		t.Fatalf("expected -x in %q", args)
	}
	if got := valueAfter(t, args, "--audio-format"); got != "mp3" {
		t.Fatalf("audio format: got %q want %q", got, "mp3")
	}
	if got := valueAfter(t, args, "--audio-quality"); got != "0" {
		t.Fatalf("audio quality: got %q want %q", got, "0")
	}
	if got := valueAfter(t, args, "--postprocessor-args"); got != "AudioConvertor:-b:a 320k" {
		t.Fatalf("postprocessor args: got %q", got)
	}
	if slices.Contains(args, "--merge-output-format") {
		t.Fatalf("audio jobs must not request a merge format: %q", args)
	}
}

func TestBuildArgsAudioDefaultBitrate(t *testing.T) {
	req := job.Request{URL: "https://example.com/a", Kind: job.KindAudio, Quality: "opus"}
	args := ytdlp.BuildArgs(req, "/scratch/id.%(ext)s", testOptions)
	if got := valueAfter(t, args, "--postprocessor-args"); got != "AudioConvertor:-b:a 192k" {
		t.Fatalf("expected default bitrate, got %q", got)
	}
}

func TestBuildArgsVideo(t *testing.T) {
	req := job.Request{URL: "https://example.com/v", Kind: job.KindVideo, Quality: "720"}
	args := ytdlp.BuildArgs(req, "/scratch/id.%(ext)s", testOptions)

	if got := valueAfter(t, args, "-f"); got != "bestvideo[height<=720]+bestaudio/best[height<=720]" {
		t.Fatalf("format selector: got %q", got)
	}
	if got := valueAfter(t, args, "--merge-output-format"); got != "mp4" {
		t.Fatalf("merge format: got %q want mp4", got)
	}
	if slices.Contains(args, "-x") {
		t.Fatalf("video jobs must not extract audio: %q", args)
	}
}

func TestBuildArgsCommonFlags(t *testing.T) {
	opts := testOptions
	opts.FFmpegLocation = "/opt/ffmpeg/bin"
	req := job.Request{URL: "https://example.com/v", Kind: job.KindVideo, Quality: "480"}
	template := ytdlp.OutputTemplate("/scratch", "1234")
	args := ytdlp.BuildArgs(req, template, opts)

	if template != filepath.Join("/scratch", "1234.%(ext)s") {
		t.Fatalf("unexpected template %q", template)
	}
	if got := valueAfter(t, args, "-o"); got != template {
		t.Fatalf("output template: got %q want %q", got, template)
	}
	if !slices.Contains(args, "--no-playlist") {
		t.Fatalf("expected --no-playlist in %q", args)
	}
	if got := valueAfter(t, args, "--user-agent"); got != "TestAgent/1.0" {
		t.Fatalf("user agent: got %q", got)
	}
	if got := valueAfter(t, args, "--print"); got != "after_move:filepath" {
		t.Fatalf("print template: got %q", got)
	}
	if got := valueAfter(t, args, "--ffmpeg-location"); got != "/opt/ffmpeg/bin" {
		t.Fatalf("ffmpeg location: got %q", got)
	}
	n := len(args)
	if args[n-2] != "--" || args[n-1] != "https://example.com/v" {
		t.Fatalf("expected URL to be the final token after --, got %q", args[n-2:])
	}
}
