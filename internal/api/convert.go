package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"streamtofile/internal/deps"
	"streamtofile/internal/job"
	"streamtofile/internal/preflight"
	"streamtofile/internal/services"
)

// maxRequestBody bounds the JSON or form body of a convert request.
const maxRequestBody = 64 << 10

// DecodeConvertRequest reads a convert request from a JSON or
// application/x-www-form-urlencoded body. Fields are not validated here; an
// empty body decodes to an empty request so the caller reports the missing URL.
func DecodeConvertRequest(w http.ResponseWriter, r *http.Request) (ConvertRequest, error) {
	var req ConvertRequest
	if r.Body == nil {
		return req, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	mediaType := "application/json"
	if ct := strings.TrimSpace(r.Header.Get("Content-Type")); ct != "" {
		parsed, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return req, services.Wrap(services.ErrValidation, "api", "decode", "invalid content type", err)
		}
		mediaType = parsed
	}

	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		parse := r.ParseForm
		if mediaType == "multipart/form-data" {
			parse = func() error { return r.ParseMultipartForm(maxRequestBody) }
		}
		if err := parse(); err != nil {
			return req, services.Wrap(services.ErrValidation, "api", "decode", "invalid form body", err)
		}
		req.URL = r.PostForm.Get("url")
		req.Type = r.PostForm.Get("type")
		req.Quality = r.PostForm.Get("quality")
		req.Bitrate = r.PostForm.Get("bitrate")
		return req, nil
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return ConvertRequest{}, nil
			}
			return ConvertRequest{}, services.Wrap(services.ErrValidation, "api", "decode", "invalid JSON body", err)
		}
		return req, nil
	default:
		return req, services.Wrap(services.ErrValidation, "api", "decode",
			fmt.Sprintf("unsupported content type %q", mediaType), nil)
	}
}

// ToJob converts the wire request into a pipeline request.
func (c ConvertRequest) ToJob() job.Request {
	return job.Request{
		URL:     c.URL,
		Kind:    job.ParseKind(c.Type),
		Quality: c.Quality,
		Bitrate: c.Bitrate,
	}
}

// FromDependencies converts dependency checks to their API representation.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, DependencyStatus{
			Name:        s.Name,
			Command:     s.Command,
			Description: s.Description,
			Optional:    s.Optional,
			Available:   s.Available,
			Version:     s.Version,
			Detail:      s.Detail,
		})
	}
	return out
}

// FromChecks converts preflight results to their API representation.
func FromChecks(results []preflight.Result) []CheckStatus {
	out := make([]CheckStatus, 0, len(results))
	for _, r := range results {
		out = append(out, CheckStatus{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
	}
	return out
}

// FormatTime renders t for API payloads; the zero time renders as "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
