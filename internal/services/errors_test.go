package services_test

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"streamtofile/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrConversion, "ytdlp", "run", "exit status 1", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrConversion) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"ytdlp", "run", "exit status 1"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{services.Wrap(services.ErrValidation, "request", "validate", "url is required", nil), http.StatusBadRequest},
		{services.Wrap(services.ErrConversion, "ytdlp", "run", "failed", nil), http.StatusInternalServerError},
		{services.Wrap(services.ErrTimeout, "ytdlp", "run", "timed out", nil), http.StatusInternalServerError},
		{services.Wrap(services.ErrArtifactNotFound, "scratch", "resolve", "missing", nil), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := services.HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestDiagnosticFromUnwrapsThroughLayers(t *testing.T) {
	diag := &services.DiagnosticError{
		Err:        services.Wrap(services.ErrConversion, "ytdlp", "run", "exit status 1", nil),
		ExitCode:   1,
		Diagnostic: "ERROR: network unreachable",
	}
	err := fmt.Errorf("job abc: %w", diag)

	text, ok := services.DiagnosticFrom(err)
	if !ok || text != "ERROR: network unreachable" {
		t.Fatalf("unexpected diagnostic: %q %v", text, ok)
	}
	if !errors.Is(err, services.ErrConversion) {
		t.Fatal("expected marker reachable through DiagnosticError")
	}
	if _, ok := services.DiagnosticFrom(errors.New("plain")); ok {
		t.Fatal("expected no diagnostic on plain error")
	}
}

func TestClientMessageStripsStagePrefix(t *testing.T) {
	err := fmt.Errorf("decode: %w", services.Wrap(services.ErrValidation, "request", "validate", "URL is required", nil))
	if got := services.ClientMessage(err, "bad request"); got != "URL is required" {
		t.Fatalf("unexpected client message %q", got)
	}
	if got := services.ClientMessage(errors.New("plain"), "bad request"); got != "bad request" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
