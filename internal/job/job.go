package job

import "time"

// Status tracks where a job is in its single pass through the pipeline.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job is the transient record of one conversion. It never outlives the HTTP
// exchange that created it.
type Job struct {
	ID         string
	Request    Request
	Status     Status
	ExitCode   int
	StderrLog  string
	OutputPath string `json:"-"`
	CreatedAt  time.Time
}

// New allocates an identifier and starts the job in the running state.
func New(req Request) *Job {
	return &Job{
		ID:        NewID(),
		Request:   req,
		Status:    StatusRunning,
		CreatedAt: time.Now(),
	}
}

// Finish records the terminal status implied by outcome.
func (j *Job) Finish(outcome Outcome) {
	switch o := outcome.(type) {
	case Succeeded:
		j.Status = StatusSucceeded
		j.OutputPath = o.ArtifactPath
	case Failed:
		j.Status = StatusFailed
		j.ExitCode = o.ExitCode
		j.StderrLog = o.Diagnostic
	case TimedOut:
		j.Status = StatusFailed
		j.ExitCode = -1
		j.StderrLog = o.Diagnostic
	case ArtifactMissing:
		j.Status = StatusFailed
		j.StderrLog = o.Diagnostic
	}
}

// Elapsed reports how long the job has existed.
func (j *Job) Elapsed() time.Duration {
	return time.Since(j.CreatedAt)
}
