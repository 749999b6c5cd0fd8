// Package convert runs one conversion job end to end: it allocates the job,
// builds the yt-dlp argument list, waits for the subprocess, and resolves the
// artifact it left in the scratch directory.
//
// Every run ends in exactly one job.Outcome. Failed runs purge their scratch
// entries before Convert returns; successful runs hand the artifact to the
// caller, which owns its deletion through the delivery package.
package convert
