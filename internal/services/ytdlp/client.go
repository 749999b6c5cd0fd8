package ytdlp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"streamtofile/internal/logging"
	"streamtofile/internal/services"
)

const (
	defaultKillGrace   = 5 * time.Second
	defaultStderrLimit = 64 * 1024
)

// Executor abstracts command execution for testability. Implementations must
// honour ctx by terminating the process and return the error from waiting on it.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string), stderr io.Writer) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithKillGrace sets how long a terminated process group may run before SIGKILL.
func WithKillGrace(grace time.Duration) Option {
	return func(c *Client) {
		if grace > 0 {
			c.grace = grace
		}
	}
}

// WithStderrLimit caps the retained stderr tail.
func WithStderrLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.stderrLimit = limit
		}
	}
}

// WithLogger attaches a logger for stdout echo and lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "ytdlp")
	}
}

// Client wraps yt-dlp invocations.
type Client struct {
	binary      string
	timeout     time.Duration
	grace       time.Duration
	stderrLimit int
	exec        Executor
	logger      *slog.Logger
}

// Result describes a finished yt-dlp run.
type Result struct {
	ExitCode     int
	Stderr       string
	ReportedPath string
	TimedOut     bool
	Canceled     bool
	Elapsed      time.Duration
}

// Succeeded reports whether the tool exited zero on its own.
func (r Result) Succeeded() bool {
	return r.ExitCode == 0 && !r.TimedOut && !r.Canceled
}

// New constructs a yt-dlp client. A zero timeout disables the wall-clock limit.
func New(binary string, timeout time.Duration, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	client := &Client{
		binary:      binary,
		timeout:     timeout,
		grace:       defaultKillGrace,
		stderrLimit: defaultStderrLimit,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.exec == nil {
		client.exec = commandExecutor{grace: client.grace}
	}
	return client, nil
}

// Binary returns the configured executable.
func (c *Client) Binary() string {
	return c.binary
}

// Run executes yt-dlp with args and blocks until the process group has exited.
// A non-zero exit, timeout, or cancellation is reported through Result; the
// returned error is reserved for failures to launch the tool at all.
func (c *Client) Run(ctx context.Context, args []string) (Result, error) {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	logger := logging.WithContext(ctx, c.logger)
	stderr := newTailBuffer(c.stderrLimit)
	var (
		mu       sync.Mutex
		reported string
	)
	onStdout := func(line string) {
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		logger.Debug("yt-dlp output", logging.String("line", line))
		if filepath.IsAbs(line) {
			mu.Lock()
			reported = line
			mu.Unlock()
		}
	}

	started := time.Now()
	err := c.exec.Run(runCtx, c.binary, args, onStdout, stderr)
	result := Result{
		Stderr:  stderr.String(),
		Elapsed: time.Since(started),
	}
	mu.Lock()
	result.ReportedPath = reported
	mu.Unlock()

	if stderr.Truncated() {
		logger.Debug("yt-dlp stderr truncated", logging.Int("limit_bytes", c.stderrLimit))
	}

	// A clean exit stands even if the context ended while the output drained.
	switch {
	case err == nil:
		result.ExitCode = 0
	case ctx.Err() != nil:
		result.Canceled = true
		result.ExitCode = exitCode(err)
	case runCtx.Err() != nil:
		result.TimedOut = true
		result.ExitCode = exitCode(err)
	default:
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return result, services.Wrap(services.ErrConversion, "ytdlp", "start", c.binary, err)
		}
		result.ExitCode = exitErr.ExitCode()
	}
	return result, nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
