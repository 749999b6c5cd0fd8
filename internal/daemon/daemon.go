package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"streamtofile/internal/config"
	"streamtofile/internal/convert"
	"streamtofile/internal/delivery"
	"streamtofile/internal/deps"
	"streamtofile/internal/logging"
	"streamtofile/internal/preflight"
	"streamtofile/internal/scratch"
)

// Daemon coordinates the HTTP server and background upkeep, and enforces
// single-instance ownership of the scratch directory.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	convert  *convert.Service
	delivery *delivery.Manager
	api      *apiServer

	lock      *scratch.Lock
	running   atomic.Bool
	startedAt atomic.Pointer[time.Time]
	lastSweep atomic.Pointer[SweepSummary]

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// SweepSummary records the outcome of one stale scratch sweep.
type SweepSummary struct {
	At      time.Time
	Removed int
	Errors  int
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	StartedAt    time.Time
	BasePath     string
	ScratchDir   string
	LockFilePath string
	InFlight     int64
	LastSweep    *SweepSummary
	Checks       []preflight.Result
	Dependencies []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, svc *convert.Service, mgr *delivery.Manager) (*Daemon, error) {
	if cfg == nil || svc == nil || mgr == nil {
		return nil, errors.New("daemon requires config, conversion service, and delivery manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		convert:  svc,
		delivery: mgr,
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Handler returns the routed HTTP handler without starting a listener.
func (d *Daemon) Handler() http.Handler {
	return d.api.handler()
}

// Start acquires the scratch lock, sweeps leftovers from previous runs, and
// begins serving HTTP.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	lock, err := scratch.AcquireLock(d.convert.ScratchPath())
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.Sweep(runCtx)

	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = lock.Release()
		return fmt.Errorf("start api server: %w", err)
	}

	d.mu.Lock()
	d.lock = lock
	d.cancel = cancel
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.runSweeper(runCtx)
	}()

	now := time.Now()
	d.startedAt.Store(&now)
	d.running.Store(true)
	d.logger.Info("streamtofile server started",
		logging.String(logging.FieldEventType, "server_started"),
		logging.String("address", d.api.address()),
		logging.String("base_path", d.cfg.Server.BasePath),
		logging.String("lock", lock.Path()),
	)
	return nil
}

// Stop shuts the HTTP server down, waits for background work, and releases
// the scratch lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.api.stop(d.cfg.ShutdownTimeout())

	d.mu.Lock()
	cancel := d.cancel
	lock := d.lock
	d.cancel = nil
	d.lock = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	d.wg.Wait()
	if err := lock.Release(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release scratch lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the lock file if no server is running"),
		)
	}
	d.running.Store(false)
	d.logger.Info("streamtofile server stopped", logging.String(logging.FieldEventType, "server_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Addr returns the listener address once started, or the configured bind.
func (d *Daemon) Addr() string {
	return d.api.address()
}

// Sweep removes scratch entries older than the configured stale threshold.
func (d *Daemon) Sweep(ctx context.Context) scratch.CleanStaleResult {
	result := scratch.CleanStale(ctx, d.convert.ScratchPath(), d.cfg.StaleAfter(), d.logger)
	d.lastSweep.Store(&SweepSummary{
		At:      time.Now(),
		Removed: len(result.Removed),
		Errors:  len(result.Errors),
	})
	if len(result.Removed) > 0 {
		d.logger.Info("stale scratch entries removed",
			logging.String(logging.FieldEventType, "scratch_swept"),
			logging.Int("removed", len(result.Removed)),
		)
	}
	for _, cleanupErr := range result.Errors {
		logging.WarnWithContext(d.logger, "stale scratch entry not removed", "scratch_sweep_failed",
			logging.String("path", cleanupErr.Path),
			logging.Error(cleanupErr.Error),
			logging.String(logging.FieldErrorHint, "check scratch_dir permissions"),
			logging.String(logging.FieldImpact, "disk space held until the next sweep"),
		)
	}
	return result
}

func (d *Daemon) runSweeper(ctx context.Context) {
	interval := d.cfg.SweepInterval()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Sweep(ctx)
		}
	}
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:    d.running.Load(),
		PID:        os.Getpid(),
		BasePath:   d.cfg.Server.BasePath,
		ScratchDir: d.convert.ScratchPath(),
		InFlight:   d.convert.InFlight(),
		LastSweep:  d.lastSweep.Load(),
		Checks: []preflight.Result{
			preflight.CheckDirectoryAccess("Scratch directory", d.convert.ScratchPath()),
		},
		Dependencies: preflight.CheckSystemDeps(ctx, d.cfg),
	}
	if started := d.startedAt.Load(); started != nil {
		status.StartedAt = *started
	}
	d.mu.Lock()
	status.LockFilePath = d.lock.Path()
	d.mu.Unlock()
	return status
}
