package tracklist

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Track is one named segment of the source media.
type Track struct {
	Title string
	// Start is the inclusive offset into the source media, in seconds.
	Start int
}

// TrackList preserves the order in which tracks appear in the source text.
type TrackList []Track

// Extract scans text top to bottom and returns every line ParseLine accepts.
// An empty result means the text carries no track list.
func Extract(text string) TrackList {
	var tracks TrackList
	for _, line := range strings.Split(text, "\n") {
		if track, ok := ParseLine(line); ok {
			tracks = append(tracks, track)
		}
	}
	return tracks
}

// ParseLine classifies a single line. A track line starts with a timestamp
// token (one or two digits, then one or two groups of ':' and exactly two
// digits), followed by whitespace, followed by a title with at least one
// non-whitespace character. The title is kept verbatim; a trailing carriage
// return is treated as part of the line ending.
func ParseLine(line string) (Track, bool) {
	line = strings.TrimSuffix(line, "\r")

	n := timestampLen(line)
	if n == 0 {
		return Track{}, false
	}
	stamp, rest := line[:n], line[n:]

	title := strings.TrimLeftFunc(rest, unicode.IsSpace)
	if len(title) == len(rest) {
		// no separating whitespace
		return Track{}, false
	}
	if strings.TrimSpace(title) == "" {
		return Track{}, false
	}
	return Track{Title: title, Start: Seconds(stamp)}, true
}

// timestampLen returns the byte length of the timestamp token at the start of
// line, or 0 when the line does not start with one.
func timestampLen(line string) int {
	i := digitsAt(line, 0, 2)
	if i == 0 {
		return 0
	}
	groups := 0
	for groups < 2 && i+3 <= len(line) && line[i] == ':' && isDigit(line[i+1]) && isDigit(line[i+2]) {
		i += 3
		groups++
	}
	if groups == 0 {
		return 0
	}
	// The token must end at whitespace; "1:234" or "1:23:45:67" are not clock values.
	if i < len(line) {
		r, _ := utf8.DecodeRuneInString(line[i:])
		if !unicode.IsSpace(r) {
			return 0
		}
	}
	return i
}

// digitsAt counts up to max ASCII digits starting at offset.
func digitsAt(s string, offset, max int) int {
	n := 0
	for offset+n < len(s) && n < max && isDigit(s[offset+n]) {
		n++
	}
	return n
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
