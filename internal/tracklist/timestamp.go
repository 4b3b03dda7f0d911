package tracklist

import (
	"strconv"
	"strings"
)

// Seconds converts a colon-separated clock value ("M:SS", "H:MM:SS", ...) into
// seconds, reading components most significant first. A component that is not
// a non-negative decimal integer counts as zero.
func Seconds(value string) int {
	total := 0
	for _, part := range strings.Split(value, ":") {
		total = total*60 + component(part)
	}
	return total
}

func component(part string) int {
	if part == "" || strings.IndexFunc(part, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return 0
	}
	n, err := strconv.Atoi(part)
	if err != nil {
		return 0
	}
	return n
}

// FormatSeconds renders seconds back into the clock form used in descriptions:
// "M:SS" below an hour, "H:MM:SS" otherwise.
func FormatSeconds(seconds int) string {
	if seconds < 0 {
		return "-" + FormatSeconds(-seconds)
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	var b strings.Builder
	if h > 0 {
		b.WriteString(strconv.Itoa(h))
		b.WriteByte(':')
		writeTwo(&b, m)
	} else {
		b.WriteString(strconv.Itoa(m))
	}
	b.WriteByte(':')
	writeTwo(&b, s)
	return b.String()
}

func writeTwo(b *strings.Builder, v int) {
	if v < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.Itoa(v))
}
