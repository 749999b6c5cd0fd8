// Package job models a single conversion request and its lifecycle.
//
// A Job is created per HTTP request, owns exactly one identifier, and is
// discarded once the response has been written. Request.Validate enforces the
// allow-lists that keep user input from reaching yt-dlp as anything other
// than data, and Outcome is the closed set of results a run can produce.
package job
