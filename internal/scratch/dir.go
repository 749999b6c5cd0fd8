package scratch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"streamtofile/internal/logging"
)

// Dir is a scratch directory.
type Dir struct {
	path   string
	logger *slog.Logger
}

// Open ensures path exists and returns a handle to it.
func Open(path string, logger *slog.Logger) (*Dir, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("scratch directory required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve scratch directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch directory %q: %w", abs, err)
	}
	return &Dir{path: abs, logger: logging.NewComponentLogger(logger, "scratch")}, nil
}

// Path returns the absolute directory path.
func (d *Dir) Path() string {
	return d.path
}

// belongsTo reports whether a directory entry name was produced for jobID.
func belongsTo(name, jobID string) bool {
	return name == jobID || strings.HasPrefix(name, jobID+".")
}

// RemoveJob deletes every entry carrying the job's prefix, including partial
// downloads and intermediate format files.
func (d *Dir) RemoveJob(jobID string) ([]string, error) {
	return d.removeJob(jobID, "")
}

// RemoveJobExcept deletes the job's entries other than keep, the artifact
// chosen for delivery.
func (d *Dir) RemoveJobExcept(jobID, keep string) ([]string, error) {
	if strings.TrimSpace(keep) == "" {
		return nil, errors.New("kept path required")
	}
	return d.removeJob(jobID, filepath.Clean(keep))
}

func (d *Dir) removeJob(jobID, keep string) ([]string, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, errors.New("job id required")
	}
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("read scratch directory: %w", err)
	}
	var (
		removed []string
		errs    []error
	)
	for _, entry := range entries {
		if !belongsTo(entry.Name(), jobID) {
			continue
		}
		path := filepath.Join(d.path, entry.Name())
		if path == keep {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, path)
	}
	if len(removed) > 0 {
		d.logger.Debug("removed job files",
			logging.String(logging.FieldJobID, jobID),
			logging.Int("count", len(removed)),
		)
	}
	return removed, errors.Join(errs...)
}
