package daemon_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"streamtofile/internal/api"
	"streamtofile/internal/config"
	"streamtofile/internal/convert"
	"streamtofile/internal/daemon"
	"streamtofile/internal/delivery"
	"streamtofile/internal/logging"
	"streamtofile/internal/scratch"
)

// successTool mimics yt-dlp: it records its arguments in args.log next to
// itself, leaves an intermediate "<id>.webm", writes "<id>.mp3" from the -o
// template and prints the final path the way --print after_move:filepath does.
const successTool = `#!/bin/sh
printf '%s\n' "$@" > "$(dirname "$0")/args.log"
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    -o) out="$2"; shift 2 ;;
    --) shift; break ;;
    *) shift ;;
  esac
done
printf 'webm' > "$(printf '%s' "$out" | sed 's/%(ext)s/webm/')"
file=$(printf '%s' "$out" | sed 's/%(ext)s/mp3/')
printf 'ID3fake-audio' > "$file"
echo "$file"
`

const failingTool = `#!/bin/sh
echo "ERROR: network unreachable" >&2
exit 1
`

func writeTool(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yt-dlp")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write tool: %v", err)
	}
	return path
}

func testConfig(t *testing.T, tool string) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Server.Bind = "127.0.0.1:0"
	cfg.YTDLP.Binary = tool
	cfg.YTDLP.TimeoutSeconds = 30
	cfg.YTDLP.KillGraceSeconds = 1
	return &cfg
}

func newDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	logger := logging.NewNop()
	svc, err := convert.NewFromConfig(cfg, logger)
	if err != nil {
		t.Fatalf("convert.NewFromConfig: %v", err)
	}
	d, err := daemon.New(cfg, logger, svc, delivery.NewManager(cfg.Delivery.FilenamePrefix, logger))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func scratchEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read scratch: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func postJSON(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) api.ErrorResponse {
	t.Helper()
	var payload api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload
}

func TestConvertAudioStreamsFileAndCleansScratch(t *testing.T) {
	tool := writeTool(t, successTool)
	cfg := testConfig(t, tool)
	srv := httptest.NewServer(newDaemon(t, cfg).Handler())
	defer srv.Close()

	resp := postJSON(t, srv, "/StreamToFile/convert", `{"url":"https://example.com/watch?v=1","type":"audio","quality":"mp3","bitrate":"128"}`)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	disposition := resp.Header.Get("Content-Disposition")
	if !regexp.MustCompile(`^attachment; filename="download_[0-9]+\.mp3"$`).MatchString(disposition) {
		t.Fatalf("unexpected Content-Disposition %q", disposition)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "audio/mpeg" {
		t.Fatalf("unexpected Content-Type %q", ct)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID on response")
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != "ID3fake-audio" {
		t.Fatalf("unexpected body %q", body)
	}
	logged, err := os.ReadFile(filepath.Join(filepath.Dir(tool), "args.log"))
	if err != nil {
		t.Fatalf("read tool args: %v", err)
	}
	if !strings.Contains(string(logged), "AudioConvertor:-b:a 128k\n") {
		t.Fatalf("expected 128k bitrate in tool args, got:\n%s", logged)
	}

	// Deletion runs after the last byte is written; give the handler a moment to return.
	deadline := time.Now().Add(2 * time.Second)
	for {
		names := scratchEntries(t, cfg.Paths.ScratchDir)
		if len(names) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("scratch not cleaned: %v", names)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestConvertToolFailureReturnsDetails(t *testing.T) {
	cfg := testConfig(t, writeTool(t, failingTool))
	srv := httptest.NewServer(newDaemon(t, cfg).Handler())
	defer srv.Close()

	resp := postJSON(t, srv, "/StreamToFile/convert", `{"url":"https://example.com/v","type":"video","quality":"720"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	payload := decodeError(t, resp)
	if payload.Error != "Conversion failed" {
		t.Fatalf("unexpected error %q", payload.Error)
	}
	if !strings.Contains(payload.Details, "network unreachable") {
		t.Fatalf("expected stderr in details, got %q", payload.Details)
	}
	if names := scratchEntries(t, cfg.Paths.ScratchDir); len(names) != 0 {
		t.Fatalf("expected no leftovers, found %v", names)
	}
}

func TestConvertMissingURLIsClientError(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "spawned")
	tool := writeTool(t, "#!/bin/sh\ntouch "+marker+"\n")
	cfg := testConfig(t, tool)
	srv := httptest.NewServer(newDaemon(t, cfg).Handler())
	defer srv.Close()

	resp := postJSON(t, srv, "/StreamToFile/convert", `{"type":"audio"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if payload := decodeError(t, resp); payload.Error != "URL is required" {
		t.Fatalf("unexpected error %q", payload.Error)
	}
	if _, err := os.Stat(marker); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("tool must not be spawned for an invalid request")
	}
}

func TestConvertAcceptsFormBody(t *testing.T) {
	cfg := testConfig(t, writeTool(t, successTool))
	srv := httptest.NewServer(newDaemon(t, cfg).Handler())
	defer srv.Close()

	resp, err := http.PostForm(srv.URL+"/StreamToFile/convert", map[string][]string{
		"url":  {"https://example.com/a"},
		"type": {"audio"},
	})
	if err != nil {
		t.Fatalf("PostForm: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestConvertArtifactMissing(t *testing.T) {
	cfg := testConfig(t, writeTool(t, "#!/bin/sh\nexit 0\n"))
	srv := httptest.NewServer(newDaemon(t, cfg).Handler())
	defer srv.Close()

	resp := postJSON(t, srv, "/StreamToFile/convert", `{"url":"https://example.com/a","type":"audio"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if payload := decodeError(t, resp); payload.Error != "Output file not found" {
		t.Fatalf("unexpected error %q", payload.Error)
	}
}

func TestConvertRejectsWrongMethod(t *testing.T) {
	cfg := testConfig(t, writeTool(t, successTool))
	srv := httptest.NewServer(newDaemon(t, cfg).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/StreamToFile/convert")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	cfg := testConfig(t, writeTool(t, "#!/bin/sh\necho 2026.10.01\n"))
	srv := httptest.NewServer(newDaemon(t, cfg).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/StreamToFile/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var status api.ServerStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.BasePath != "/StreamToFile" {
		t.Fatalf("unexpected base path %q", status.BasePath)
	}
	if status.InFlightJobs != 0 {
		t.Fatalf("expected no in-flight jobs, got %d", status.InFlightJobs)
	}
	var ytdlp *api.DependencyStatus
	for i := range status.Dependencies {
		if status.Dependencies[i].Name == "yt-dlp" {
			ytdlp = &status.Dependencies[i]
		}
	}
	if ytdlp == nil || !ytdlp.Available || ytdlp.Version != "2026.10.01" {
		t.Fatalf("unexpected yt-dlp status: %+v", ytdlp)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	cfg := testConfig(t, writeTool(t, successTool))
	srv := httptest.NewServer(newDaemon(t, cfg).Handler())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/StreamToFile/api/status", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "trace-123" {
		t.Fatalf("expected caller request id echoed, got %q", got)
	}
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testConfig(t, writeTool(t, successTool))
	d := newDaemon(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.LastSweep == nil {
		t.Fatal("expected startup sweep to be recorded")
	}

	resp, err := http.Get("http://" + d.Addr() + "/StreamToFile/api/status")
	if err != nil {
		t.Fatalf("GET via listener: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from live listener, got %d", resp.StatusCode)
	}

	// A second server on the same scratch directory must be refused.
	other := newDaemon(t, cfg)
	if err := other.Start(ctx); !errors.Is(err, scratch.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}

	if err := other.Start(ctx); err != nil {
		t.Fatalf("expected lock to be free after Stop: %v", err)
	}
	other.Stop()
}

func TestStartupSweepRemovesStaleEntries(t *testing.T) {
	cfg := testConfig(t, writeTool(t, successTool))
	d := newDaemon(t, cfg)

	stale := filepath.Join(cfg.Paths.ScratchDir, "0b6c1f9e-orphan.mp4.part")
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatalf("write stale file: %v", err)
	}
	old := time.Now().Add(-2 * cfg.StaleAfter())
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	result := d.Sweep(context.Background())
	if len(result.Removed) != 1 {
		t.Fatalf("expected one stale entry removed, got %+v", result)
	}
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("stale entry still present")
	}
}
