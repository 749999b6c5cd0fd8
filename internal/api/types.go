package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ConvertRequest is the body of POST {base_path}/convert.
type ConvertRequest struct {
	URL     string `json:"url"`
	Type    string `json:"type"`
	Quality string `json:"quality"`
	Bitrate string `json:"bitrate,omitempty"`
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Version     string `json:"version,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// CheckStatus mirrors a preflight check result.
type CheckStatus struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// ServerStatus aggregates server runtime information for API consumers.
type ServerStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	StartedAt    string             `json:"startedAt,omitempty"`
	BasePath     string             `json:"basePath"`
	ScratchDir   string             `json:"scratchDir"`
	LockFilePath string             `json:"lockFilePath"`
	InFlightJobs int64              `json:"inFlightJobs"`
	LastSweep    *SweepStatus       `json:"lastSweep,omitempty"`
	Checks       []CheckStatus      `json:"checks"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// SweepStatus summarizes the most recent stale scratch sweep.
type SweepStatus struct {
	At      string `json:"at"`
	Removed int    `json:"removed"`
	Errors  int    `json:"errors"`
}
