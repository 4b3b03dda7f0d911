// Package history records split runs in a SQLite database so the history
// command can show what was produced, when, and from which video.
//
// A run is inserted as running when it starts and each cut track is appended
// as it completes. The run is then finished with a terminal status. Writes
// retry on SQLITE_BUSY so concurrent runs using different staging directories
// can share one database.
package history
