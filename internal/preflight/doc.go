// Package preflight provides readiness checks for the directories and
// external binaries a conversion depends on.
//
// These checks run in three places:
//   - The server logs a snapshot on startup so a missing yt-dlp is visible
//     before the first request fails.
//   - GET {base_path}/api/status reports them to clients.
//   - The CLI "streamtofile status" command renders them as a table.
package preflight
