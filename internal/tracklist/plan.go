package tracklist

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvertedSegment reports a segment whose end precedes or equals its start.
var ErrInvertedSegment = errors.New("segment ends before it starts")

// Offset is an optional position in seconds. The zero value is unbounded.
type Offset struct {
	Seconds int
	Valid   bool
}

// At returns a bounded offset.
func At(seconds int) Offset {
	return Offset{Seconds: seconds, Valid: true}
}

// String renders the offset as a clock value, or "END" when unbounded.
func (o Offset) String() string {
	if !o.Valid {
		return "END"
	}
	return FormatSeconds(o.Seconds)
}

// Segment is the interval to cut for one track.
type Segment struct {
	// Number is the 1-based position of the track in the list.
	Number int
	Title  string
	Start  int
	// End is unbounded for the last segment, which runs to the end of the media.
	End Offset
}

// Inverted reports whether the segment is bounded and ends at or before its start.
func (s Segment) Inverted() bool {
	return s.End.Valid && s.End.Seconds <= s.Start
}

// Duration returns the segment length in seconds and false when it is unbounded.
func (s Segment) Duration() (int, bool) {
	if !s.End.Valid {
		return 0, false
	}
	return s.End.Seconds - s.Start, true
}

// Plan derives one segment per track. Each segment ends where the next track
// starts; the last segment is left unbounded. Ordering is not validated.
func Plan(tracks TrackList) []Segment {
	if len(tracks) == 0 {
		return nil
	}
	segments := make([]Segment, len(tracks))
	for i, track := range tracks {
		seg := Segment{
			Number: i + 1,
			Title:  track.Title,
			Start:  track.Start,
		}
		if i+1 < len(tracks) {
			seg.End = At(tracks[i+1].Start)
		}
		segments[i] = seg
	}
	return segments
}

// CheckOrder returns an error wrapping ErrInvertedSegment that names every
// inverted segment, or nil when all bounded segments have positive length.
func CheckOrder(segments []Segment) error {
	var bad []string
	for _, seg := range segments {
		if seg.Inverted() {
			bad = append(bad, fmt.Sprintf("#%d %q (%s to %s)", seg.Number, seg.Title, FormatSeconds(seg.Start), seg.End))
		}
	}
	if len(bad) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvertedSegment, strings.Join(bad, ", "))
}
