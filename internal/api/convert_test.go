package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"streamtofile/internal/deps"
	"streamtofile/internal/job"
	"streamtofile/internal/services"
)

func TestDecodeConvertRequestJSON(t *testing.T) {
	body := `{"url":"https://example.com/v","type":"audio","quality":"mp3","bitrate":"320"}`
	r := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")

	req, err := DecodeConvertRequest(httptest.NewRecorder(), r)
	if err != nil {
		t.Fatalf("DecodeConvertRequest: %v", err)
	}
	if req.URL != "https://example.com/v" || req.Type != "audio" || req.Quality != "mp3" || req.Bitrate != "320" {
		t.Fatalf("unexpected request: %+v", req)
	}
	jr := req.ToJob()
	if jr.Kind != job.KindAudio {
		t.Fatalf("expected audio kind, got %q", jr.Kind)
	}
}

func TestDecodeConvertRequestForm(t *testing.T) {
	form := url.Values{"url": {"https://example.com/v"}, "type": {"video"}, "quality": {"720"}}
	r := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	req, err := DecodeConvertRequest(httptest.NewRecorder(), r)
	if err != nil {
		t.Fatalf("DecodeConvertRequest: %v", err)
	}
	if req.URL != "https://example.com/v" || req.Quality != "720" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.ToJob().Kind != job.KindVideo {
		t.Fatal("expected video kind")
	}
}

func TestDecodeConvertRequestEmptyBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(""))
	r.Header.Set("Content-Type", "application/json")

	req, err := DecodeConvertRequest(httptest.NewRecorder(), r)
	if err != nil {
		t.Fatalf("empty body should decode cleanly, got %v", err)
	}
	if req.URL != "" {
		t.Fatalf("expected empty url, got %q", req.URL)
	}
}

func TestDecodeConvertRequestRejectsMalformed(t *testing.T) {
	cases := map[string]struct {
		contentType string
		body        string
	}{
		"bad json":         {"application/json", `{"url":`},
		"unsupported type": {"text/plain", "url=x"},
		"bad content type": {"application/json; =", `{}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(tc.body))
			r.Header.Set("Content-Type", tc.contentType)
			_, err := DecodeConvertRequest(httptest.NewRecorder(), r)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestFromDependencies(t *testing.T) {
	out := FromDependencies([]deps.Status{{Name: "yt-dlp", Command: "/usr/bin/yt-dlp", Available: true, Version: "2026.10.01"}})
	if len(out) != 1 || out[0].Version != "2026.10.01" || !out[0].Available {
		t.Fatalf("unexpected conversion: %+v", out)
	}
}

func TestFormatTime(t *testing.T) {
	if FormatTime(time.Time{}) != "" {
		t.Fatal("zero time should render empty")
	}
	ts := time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	if got := FormatTime(ts); got != "2026-01-02T03:04:05.006Z" {
		t.Fatalf("unexpected format: %q", got)
	}
}
