// Package ytdlp wraps the yt-dlp command line tool.
//
// BuildArgs turns a validated job.Request into an argv slice; nothing is ever
// passed through a shell. Client.Run executes the tool in its own process
// group, keeps a bounded tail of stderr for diagnostics, records the final
// file path yt-dlp prints on stdout, and tears the whole group down when the
// job times out or the caller goes away.
package ytdlp
