// Package scratch owns the working directory where yt-dlp writes job output.
//
// The directory is an arena keyed by job identifier: every file a job
// produces starts with "<jobID>.". Resolve locates the finished artifact,
// RemoveJob purges whatever a failed job left behind, and CleanStale sweeps
// files orphaned by crashes. A Lock keeps two server processes from sharing
// (and sweeping) the same directory.
package scratch
