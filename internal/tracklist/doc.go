// Package tracklist turns free-form description text into an ordered track list
// and the time intervals to cut for each track.
//
// The package is pure: no I/O, no shared state. Extract walks the text line by
// line and keeps every line that begins with a clock-style timestamp followed
// by a title (see ParseLine for the exact rule). Plan derives one Segment per
// track whose end is the next track's start, leaving the last segment open so
// the consumer cuts through to the end of the media.
//
// Nothing here rejects odd input. Malformed lines are skipped, malformed clock
// components count as zero, and out-of-order timestamps produce inverted
// segments; CheckOrder exists for callers that want to refuse those.
package tracklist
