package delivery

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"streamtofile/internal/fileutil"
	"streamtofile/internal/logging"
	"streamtofile/internal/scratch"
	"streamtofile/internal/services"
)

// Manager delivers artifacts and deletes them afterwards.
type Manager struct {
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for download filenames.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager constructs a Manager that names downloads with prefix.
func NewManager(prefix string, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		prefix: SanitizePrefix(prefix),
		logger: logging.NewComponentLogger(logger, "delivery"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Filename returns the download name for an artifact with extension ext.
func (m *Manager) Filename(ext string) string {
	return BuildFilename(m.prefix, m.now(), ext)
}

// release closes and deletes an artifact once.
type release struct {
	once   sync.Once
	path   string
	file   *os.File
	logger *slog.Logger
	jobID  string
}

func (r *release) Do() {
	r.once.Do(func() {
		if r.file != nil {
			_ = r.file.Close()
		}
		if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.WarnWithContext(r.logger, "artifact removal failed; file remains in scratch", "artifact_cleanup_failed",
				logging.String(logging.FieldJobID, r.jobID),
				logging.String("path", r.path),
				logging.Error(services.Wrap(services.ErrCleanup, "delivery", "remove", "", err)),
				logging.String(logging.FieldErrorHint, "check scratch_dir permissions; the stale sweep will retry"),
				logging.String(logging.FieldImpact, "disk space held until the next sweep"),
			)
			return
		}
		r.logger.Debug("artifact removed", logging.String(logging.FieldJobID, r.jobID), logging.String("path", r.path))
	})
}

// Deliver streams artifact to w as an attachment and removes it from scratch
// on every exit path. When the file cannot be opened nothing is written to w
// and the caller may still send an error response.
func (m *Manager) Deliver(w http.ResponseWriter, r *http.Request, jobID string, artifact scratch.Artifact) (int64, error) {
	logger := logging.WithContext(r.Context(), m.logger)
	rel := &release{path: artifact.Path, logger: logger, jobID: jobID}
	defer rel.Do()

	file, err := os.Open(artifact.Path)
	if err != nil {
		return 0, services.Wrap(services.ErrDelivery, "delivery", "open", filepath.Base(artifact.Path), err)
	}
	rel.file = file

	info, err := file.Stat()
	if err != nil {
		return 0, services.Wrap(services.ErrDelivery, "delivery", "stat", filepath.Base(artifact.Path), err)
	}

	filename := m.Filename(artifact.Ext)
	header := w.Header()
	header.Set("Content-Type", contentType(artifact.Ext))
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	header.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	header.Set("X-Content-Type-Options", "nosniff")
	header.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return 0, nil
	}

	written, err := io.Copy(w, file)
	if err != nil {
		logger.Info("delivery interrupted",
			logging.String(logging.FieldJobID, jobID),
			logging.Int64("bytes_written", written),
			logging.Int64("bytes_total", info.Size()),
			logging.Error(err),
			logging.String(logging.FieldEventType, "delivery_interrupted"),
		)
		return written, services.Wrap(services.ErrDelivery, "delivery", "stream", "client transfer interrupted", err)
	}
	logger.Info("artifact delivered",
		logging.String(logging.FieldJobID, jobID),
		logging.String("filename", filename),
		logging.Int64("bytes", written),
		logging.String(logging.FieldEventType, "artifact_delivered"),
	)
	return written, nil
}

// SaveTo moves artifact into dir under its download filename and returns the
// new path. The scratch copy is gone afterwards whether or not the move succeeded.
func (m *Manager) SaveTo(dir, jobID string, artifact scratch.Artifact) (string, error) {
	rel := &release{path: artifact.Path, logger: m.logger, jobID: jobID}
	defer rel.Do()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrDelivery, "delivery", "save", "create output directory", err)
	}
	dest := filepath.Join(dir, m.Filename(artifact.Ext))
	if err := fileutil.MoveFile(artifact.Path, dest); err != nil {
		return "", services.Wrap(services.ErrDelivery, "delivery", "save", filepath.Base(dest), err)
	}
	return dest, nil
}

// Discard deletes an artifact that will not be delivered.
func (m *Manager) Discard(jobID string, artifact scratch.Artifact) {
	(&release{path: artifact.Path, logger: m.logger, jobID: jobID}).Do()
}

// mediaTypes covers the containers yt-dlp produces; the mime package only
// knows them when the host ships a mime.types file.
var mediaTypes = map[string]string{
	"mp3":    "audio/mpeg",
	"m4a":    "audio/mp4",
	"aac":    "audio/aac",
	"opus":   "audio/ogg",
	"ogg":    "audio/ogg",
	"vorbis": "audio/ogg",
	"flac":   "audio/flac",
	"wav":    "audio/wav",
	"alac":   "audio/mp4",
	"mp4":    "video/mp4",
	"mkv":    "video/x-matroska",
	"webm":   "video/webm",
	"mov":    "video/quicktime",
	"flv":    "video/x-flv",
	"avi":    "video/x-msvideo",
}

func contentType(ext string) string {
	if ct, ok := mediaTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	if ext != "" {
		if ct := mime.TypeByExtension("." + ext); ct != "" {
			return ct
		}
	}
	return "application/octet-stream"
}
