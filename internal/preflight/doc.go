// Package preflight provides readiness checks for the binaries, directories
// and network access ytalbum depends on.
//
// The "check" command renders every result; the split pipeline runs
// CheckSystemDeps before downloading so a missing ffmpeg is reported before
// any time is spent fetching media.
package preflight
