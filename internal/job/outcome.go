package job

// Outcome is the closed set of results a conversion run can produce. Callers
// branch with a type switch over Succeeded, Failed, TimedOut, and ArtifactMissing.
type Outcome interface {
	outcome()
}

// Succeeded means the tool exited zero and its artifact was located.
type Succeeded struct {
	ArtifactPath string
}

// Failed means the tool exited non-zero or was interrupted.
type Failed struct {
	ExitCode   int
	Diagnostic string
	Canceled   bool
}

// TimedOut means the tool exceeded its time limit and was killed.
type TimedOut struct {
	Diagnostic string
}

// ArtifactMissing means the tool exited zero but left no output for the job.
type ArtifactMissing struct {
	Diagnostic string
}

func (Succeeded) outcome()       {}
func (Failed) outcome()          {}
func (TimedOut) outcome()        {}
func (ArtifactMissing) outcome() {}
