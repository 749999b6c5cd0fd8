package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"streamtofile/internal/scratch"
)

func TestSweepCommandRemovesStaleEntries(t *testing.T) {
	env := setupCLITestEnv(t, stubTool)
	if err := os.MkdirAll(env.scratchDir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(env.scratchDir, "old-job.mp4.part")
	fresh := filepath.Join(env.scratchDir, "new-job.mp3")
	for _, p := range []string{stale, fresh} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-3 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"sweep", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("sweep --dry-run: %v", err)
	}
	requireContains(t, out, "old-job.mp4.part")
	if _, err := os.Stat(stale); err != nil {
		t.Fatal("dry run must not delete")
	}

	out, _, err = runCLI(t, []string{"sweep"}, env.configPath)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	requireContains(t, out, "Removed 1 stale entry")
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("stale entry should be gone")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatal("fresh entry should remain")
	}
}

func TestSweepCommandRefusesWhileLocked(t *testing.T) {
	env := setupCLITestEnv(t, stubTool)
	if err := os.MkdirAll(env.scratchDir, 0o755); err != nil {
		t.Fatal(err)
	}
	lock, err := scratch.AcquireLock(env.scratchDir)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	defer lock.Release()

	_, _, err = runCLI(t, []string{"sweep"}, env.configPath)
	if !errors.Is(err, scratch.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestSweepCommandRejectsThresholdWithinJobTimeout(t *testing.T) {
	env := setupCLITestEnv(t, stubTool)
	if err := os.MkdirAll(env.scratchDir, 0o755); err != nil {
		t.Fatal(err)
	}
	running := filepath.Join(env.scratchDir, "busy-job.mp4.part")
	if err := os.WriteFile(running, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-10 * time.Second)
	if err := os.Chtimes(running, old, old); err != nil {
		t.Fatal(err)
	}

	_, _, err := runCLI(t, []string{"sweep", "--older-than", "1s"}, env.configPath)
	if err == nil {
		t.Fatal("expected threshold below the job timeout to be rejected")
	}
	requireContains(t, err.Error(), "job timeout")
	if _, err := os.Stat(running); err != nil {
		t.Fatalf("in-flight entry must survive: %v", err)
	}

	out, _, err := runCLI(t, []string{"sweep", "--older-than", "5s", "--dry-run"}, env.configPath)
	if err == nil {
		t.Fatalf("dry run should apply the same bound, got output %q", out)
	}
}
