package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"streamtofile/internal/api"
	"streamtofile/internal/config"
	"streamtofile/internal/logging"
	"streamtofile/internal/services"
)

type apiServer struct {
	bind     string
	basePath string
	logger   *slog.Logger
	daemon   *Daemon
	mux      http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:     strings.TrimSpace(cfg.Server.Bind),
		basePath: cfg.Server.BasePath,
		logger:   logger,
		daemon:   d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(srv.basePath+"/convert", srv.handleConvert)
	mux.HandleFunc(srv.basePath+"/api/status", srv.handleStatus)
	srv.mux = requestIDMiddleware(srv.log(), mux)

	// WriteTimeout stays zero: a download streams for as long as the file
	// takes, and the subprocess has its own time limit.
	srv.server = &http.Server{
		Handler:           srv.mux,
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadHeaderTimeout) * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeout) * time.Second,
		IdleTimeout:       time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}
	return srv
}

func (s *apiServer) handler() http.Handler {
	return s.mux
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.server.BaseContext = func(net.Listener) context.Context { return ctx }
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop(timeout time.Duration) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logging.WarnWithContext(s.log(), "api server shutdown incomplete", "server_shutdown_timeout",
			logging.Error(err),
			logging.String(logging.FieldImpact, "in-flight downloads were cut off"),
		)
		_ = s.server.Close()
	}
	s.mu.Lock()
	s.listener = nil
	s.mu.Unlock()
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

func (s *apiServer) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	wire, err := api.DecodeConvertRequest(w, r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	result, err := s.daemon.convert.Convert(r.Context(), wire.ToJob())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if err := result.Err(); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	tracked := &statusRecorder{ResponseWriter: w}
	if _, err := s.daemon.delivery.Deliver(tracked, r, result.Job.ID, result.Artifact); err != nil && !tracked.wroteHeader {
		s.writeFailure(w, r, services.Wrap(services.ErrArtifactNotFound, "delivery", "open", "", err))
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.ServerStatus{
		Running:      status.Running,
		PID:          status.PID,
		StartedAt:    api.FormatTime(status.StartedAt),
		BasePath:     status.BasePath,
		ScratchDir:   status.ScratchDir,
		LockFilePath: status.LockFilePath,
		InFlightJobs: status.InFlight,
		Checks:       api.FromChecks(status.Checks),
		Dependencies: api.FromDependencies(status.Dependencies),
	}
	if sweep := status.LastSweep; sweep != nil {
		payload.LastSweep = &api.SweepStatus{
			At:      api.FormatTime(sweep.At),
			Removed: sweep.Removed,
			Errors:  sweep.Errors,
		}
	}
	s.writeJSON(w, http.StatusOK, payload)
}

// writeFailure maps a classified pipeline error onto the response envelope.
func (s *apiServer) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.WithContext(r.Context(), s.log())
	status := services.HTTPStatus(err)
	resp := api.ErrorResponse{}
	switch {
	case errors.Is(err, services.ErrValidation):
		resp.Error = services.ClientMessage(err, "invalid request")
	case errors.Is(err, services.ErrCanceled):
		logger.Debug("client went away before conversion finished")
		return
	case errors.Is(err, services.ErrTimeout):
		resp.Error = "Conversion timed out"
		resp.Details, _ = services.DiagnosticFrom(err)
	case errors.Is(err, services.ErrArtifactNotFound):
		resp.Error = "Output file not found"
	case errors.Is(err, services.ErrConversion):
		resp.Error = "Conversion failed"
		resp.Details, _ = services.DiagnosticFrom(err)
	default:
		resp.Error = "Internal server error"
		logging.ErrorWithContext(logger, "request failed", "request_failed", logging.Error(err))
	}
	s.writeJSON(w, status, resp)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
