package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"streamtofile/internal/job"
	"streamtofile/internal/logging"
	"streamtofile/internal/scratch"
	"streamtofile/internal/services"
	"streamtofile/internal/services/ytdlp"
)

// Runner executes one yt-dlp invocation.
type Runner interface {
	Run(ctx context.Context, args []string) (ytdlp.Result, error)
}

// Service wires the conversion stages together.
type Service struct {
	runner   Runner
	scratch  *scratch.Dir
	build    ytdlp.BuildOptions
	timeout  time.Duration
	logger   *slog.Logger
	inflight atomic.Int64
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for job lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logging.NewComponentLogger(logger, "convert")
	}
}

// WithTimeout records the subprocess time limit for diagnostics.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		s.timeout = timeout
	}
}

// NewService constructs a conversion service.
func NewService(runner Runner, dir *scratch.Dir, build ytdlp.BuildOptions, opts ...Option) (*Service, error) {
	if runner == nil || dir == nil {
		return nil, errors.New("convert service requires runner and scratch directory")
	}
	svc := &Service{
		runner:  runner,
		scratch: dir,
		build:   build,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Result is the finished job together with its outcome. Artifact is set only
// when Outcome is job.Succeeded.
type Result struct {
	Job      *job.Job
	Outcome  job.Outcome
	Artifact scratch.Artifact
}

// Err returns nil for a successful run and a classified DiagnosticError otherwise.
func (r *Result) Err() error {
	if r == nil {
		return services.Wrap(services.ErrConversion, "convert", "", "no result", nil)
	}
	switch o := r.Outcome.(type) {
	case job.Succeeded:
		return nil
	case job.Failed:
		marker := services.ErrConversion
		message := fmt.Sprintf("yt-dlp exited with status %d", o.ExitCode)
		if o.Canceled {
			marker = services.ErrCanceled
			message = "request canceled"
		}
		return &services.DiagnosticError{
			Err:        services.Wrap(marker, "convert", "run", message, nil),
			ExitCode:   o.ExitCode,
			Diagnostic: o.Diagnostic,
		}
	case job.TimedOut:
		return &services.DiagnosticError{
			Err:        services.Wrap(services.ErrTimeout, "convert", "run", "yt-dlp timed out", nil),
			ExitCode:   -1,
			Diagnostic: o.Diagnostic,
		}
	case job.ArtifactMissing:
		return &services.DiagnosticError{
			Err:        services.Wrap(services.ErrArtifactNotFound, "convert", "resolve", "", nil),
			Diagnostic: o.Diagnostic,
		}
	default:
		return services.Wrap(services.ErrConversion, "convert", "", "unknown outcome", nil)
	}
}

// InFlight reports how many jobs are currently between spawn and resolution.
func (s *Service) InFlight() int64 {
	return s.inflight.Load()
}

// ScratchPath returns the scratch directory jobs write into.
func (s *Service) ScratchPath() string {
	return s.scratch.Path()
}

// Convert runs req to completion. The returned error is non-nil only when the
// request is invalid, in which case no job was created and nothing was spawned.
// All other failures are reported through Result.Outcome.
func (s *Service) Convert(ctx context.Context, req job.Request) (*Result, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	j := job.New(req)
	ctx = services.WithJobID(ctx, j.ID)
	ctx = services.WithStage(ctx, "convert")
	logger := logging.WithContext(ctx, s.logger)

	args := ytdlp.BuildArgs(req, ytdlp.OutputTemplate(s.scratch.Path(), j.ID), s.build)
	logger.Info("conversion started",
		logging.String(logging.FieldEventType, "job_started"),
		logging.String("kind", string(req.Kind)),
		logging.String("quality", req.Quality),
	)
	logger.Debug("yt-dlp arguments", logging.Strings("args", args))

	s.inflight.Add(1)
	run, runErr := s.runner.Run(ctx, args)
	s.inflight.Add(-1)

	outcome, artifact := s.classify(j.ID, run, runErr)
	if _, ok := outcome.(job.Succeeded); ok {
		s.purge(ctx, j.ID, artifact.Path)
	} else {
		s.purge(ctx, j.ID, "")
	}
	j.Finish(outcome)

	result := &Result{Job: j, Outcome: outcome, Artifact: artifact}
	s.logOutcome(logger, result, run.Elapsed)
	return result, nil
}

func (s *Service) classify(jobID string, run ytdlp.Result, runErr error) (job.Outcome, scratch.Artifact) {
	redact := s.redactor(jobID)
	switch {
	case runErr != nil:
		return job.Failed{ExitCode: -1, Diagnostic: redact.Replace(runErr.Error())}, scratch.Artifact{}
	case run.TimedOut:
		diag := fmt.Sprintf("yt-dlp exceeded the %s time limit", s.timeout)
		if s.timeout <= 0 {
			diag = "yt-dlp exceeded its time limit"
		}
		if tail := strings.TrimSpace(run.Stderr); tail != "" {
			diag += "\n" + redact.Replace(tail)
		}
		return job.TimedOut{Diagnostic: diag}, scratch.Artifact{}
	case run.Canceled:
		return job.Failed{ExitCode: run.ExitCode, Diagnostic: redact.Replace(run.Stderr), Canceled: true}, scratch.Artifact{}
	case run.ExitCode != 0:
		return job.Failed{ExitCode: run.ExitCode, Diagnostic: redact.Replace(run.Stderr)}, scratch.Artifact{}
	}

	artifact, err := s.scratch.Resolve(jobID, run.ReportedPath)
	if err != nil {
		return job.ArtifactMissing{Diagnostic: redact.Replace(err.Error())}, scratch.Artifact{}
	}
	return job.Succeeded{ArtifactPath: artifact.Path}, artifact
}

// redactor hides the scratch location and job id from text returned to clients.
func (s *Service) redactor(jobID string) *strings.Replacer {
	return strings.NewReplacer(s.scratch.Path(), "<scratch>", jobID, "<job>")
}

// purge removes the job's scratch entries, sparing keep when it is set.
func (s *Service) purge(ctx context.Context, jobID, keep string) {
	var (
		removed []string
		err     error
	)
	if keep != "" {
		removed, err = s.scratch.RemoveJobExcept(jobID, keep)
	} else {
		removed, err = s.scratch.RemoveJob(jobID)
	}
	logger := logging.WithContext(ctx, s.logger)
	if err != nil {
		logging.WarnWithContext(logger, "failed to purge job files", "scratch_purge_failed",
			logging.Error(services.Wrap(services.ErrCleanup, "convert", "purge", jobID, err)),
			logging.String(logging.FieldErrorHint, "check scratch directory permissions"),
			logging.String(logging.FieldImpact, "partial files remain until the stale sweep"),
		)
		return
	}
	if len(removed) > 0 {
		logger.Debug("purged job files", logging.Int("count", len(removed)))
	}
}

func (s *Service) logOutcome(logger *slog.Logger, result *Result, elapsed time.Duration) {
	switch o := result.Outcome.(type) {
	case job.Succeeded:
		logger.Info("conversion finished",
			logging.String(logging.FieldEventType, "job_succeeded"),
			logging.String("artifact_ext", result.Artifact.Ext),
			logging.Int64("artifact_bytes", result.Artifact.Size),
			logging.Duration("elapsed", elapsed),
		)
	case job.Failed:
		if o.Canceled {
			logger.Info("conversion canceled",
				logging.String(logging.FieldEventType, "job_canceled"),
				logging.Duration("elapsed", elapsed),
			)
			return
		}
		logging.WarnWithContext(logger, "conversion failed", "job_failed",
			logging.Int("exit_code", o.ExitCode),
			logging.String("stderr_tail", lastLine(o.Diagnostic)),
			logging.String(logging.FieldErrorHint, "inspect yt-dlp stderr in the response details"),
			logging.Duration("elapsed", elapsed),
		)
	case job.TimedOut:
		logging.WarnWithContext(logger, "conversion timed out", "job_timeout",
			logging.Duration("limit", s.timeout),
			logging.String(logging.FieldErrorHint, "raise ytdlp.timeout_seconds for long media"),
		)
	case job.ArtifactMissing:
		logging.WarnWithContext(logger, "conversion produced no output", "artifact_missing",
			logging.String(logging.FieldErrorHint, "yt-dlp exited 0 without writing a file for this job"),
		)
	}
}

func lastLine(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.LastIndexByte(text, '\n'); idx >= 0 {
		return text[idx+1:]
	}
	return text
}
