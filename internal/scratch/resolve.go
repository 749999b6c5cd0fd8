package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"streamtofile/internal/logging"
	"streamtofile/internal/services"
)

// Artifact is a finished output file in the scratch directory.
type Artifact struct {
	Path    string
	Ext     string
	Size    int64
	ModTime time.Time
}

// formatFragment matches the per-format intermediates yt-dlp writes before
// merging, e.g. "<id>.f137.mp4".
var formatFragment = regexp.MustCompile(`\.f[0-9]+\.[A-Za-z0-9]+$`)

// isPartial reports names yt-dlp or ffmpeg use for incomplete output.
func isPartial(name string) bool {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".part"), strings.HasSuffix(lower, ".ytdl"):
		return true
	case strings.Contains(lower, ".part-frag"), strings.Contains(lower, ".temp."):
		return true
	case formatFragment.MatchString(lower):
		return true
	}
	return false
}

// Resolve finds the artifact produced for jobID. The path yt-dlp reported on
// stdout wins when it is a regular file inside this directory that carries the
// job prefix; otherwise the directory is scanned. If several candidates match,
// the most recently modified one is returned and the anomaly is logged.
func (d *Dir) Resolve(jobID, reported string) (Artifact, error) {
	if artifact, ok := d.fromReported(jobID, reported); ok {
		return artifact, nil
	}

	candidates, err := d.candidates(jobID)
	if err != nil {
		return Artifact{}, services.Wrap(services.ErrArtifactNotFound, "scratch", "resolve", "read scratch directory", err)
	}
	if len(candidates) == 0 {
		return Artifact{}, services.Wrap(services.ErrArtifactNotFound, "scratch", "resolve",
			fmt.Sprintf("no output for job %s", jobID), nil)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].ModTime.Equal(candidates[j].ModTime) {
			return candidates[i].ModTime.After(candidates[j].ModTime)
		}
		return candidates[i].Path < candidates[j].Path
	})
	if len(candidates) > 1 {
		names := make([]string, 0, len(candidates))
		for _, c := range candidates {
			names = append(names, filepath.Base(c.Path))
		}
		logging.WarnWithContext(d.logger, "multiple outputs for one job; using newest", "artifact_ambiguous",
			logging.String(logging.FieldJobID, jobID),
			logging.Strings("candidates", names),
			logging.String("selected", filepath.Base(candidates[0].Path)),
			logging.String(logging.FieldErrorHint, "check yt-dlp postprocessor options"),
			logging.String(logging.FieldImpact, "extra files are removed before delivery"),
		)
	}
	return candidates[0], nil
}

func (d *Dir) fromReported(jobID, reported string) (Artifact, bool) {
	reported = strings.TrimSpace(reported)
	if reported == "" {
		return Artifact{}, false
	}
	cleaned := filepath.Clean(reported)
	name := filepath.Base(cleaned)
	if filepath.Dir(cleaned) != d.path || !belongsTo(name, jobID) || isPartial(name) {
		d.logger.Debug("ignoring reported path outside job scope",
			logging.String(logging.FieldJobID, jobID),
			logging.String("reported", reported),
		)
		return Artifact{}, false
	}
	info, err := os.Stat(cleaned)
	if err != nil || !info.Mode().IsRegular() {
		return Artifact{}, false
	}
	return newArtifact(cleaned, info), true
}

func (d *Dir) candidates(jobID string) ([]Artifact, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}
	var out []Artifact
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !belongsTo(name, jobID) || isPartial(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		out = append(out, newArtifact(filepath.Join(d.path, name), info))
	}
	return out, nil
}

func newArtifact(path string, info os.FileInfo) Artifact {
	return Artifact{
		Path:    path,
		Ext:     strings.TrimPrefix(filepath.Ext(path), "."),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}
