package ytdlp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// commandExecutor runs the tool in a dedicated process group so ffmpeg
// children spawned by yt-dlp are terminated along with it.
type commandExecutor struct {
	grace time.Duration
}

func (e commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string), stderr io.Writer) error {
	cmd := exec.Command(binary, args...) //nolint:gosec
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stderr = stderr
	// Bounds Wait if a process outside the group still holds our pipes.
	cmd.WaitDelay = e.grace + 10*time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	done := make(chan struct{})
	watchdogExited := make(chan struct{})
	go func() {
		defer close(watchdogExited)
		e.watch(ctx, cmd.Process.Pid, done)
	}()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if onStdout != nil {
			onStdout(scanner.Text())
		}
	}
	if scanner.Err() != nil {
		// Keep draining so the child never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, stdout)
	}

	waitErr := cmd.Wait()
	close(done)
	<-watchdogExited
	return waitErr
}

// watch terminates the process group once ctx is done: SIGTERM first, then
// SIGKILL if the group is still alive after the grace period.
func (e commandExecutor) watch(ctx context.Context, pid int, done <-chan struct{}) {
	select {
	case <-done:
		return
	case <-ctx.Done():
	}
	_ = signalGroup(pid, unix.SIGTERM)

	timer := time.NewTimer(e.grace)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		_ = signalGroup(pid, unix.SIGKILL)
	}
}

func signalGroup(pid int, sig unix.Signal) error {
	if pid <= 0 {
		return nil
	}
	if err := unix.Kill(-pid, sig); err != nil && err != unix.ESRCH {
		return err
	}
	return nil
}
