package albumsplit

import (
	"fmt"
	"path/filepath"
	"strings"

	"ytalbum/internal/textutil"
	"ytalbum/internal/tracklist"
)

// outputNames returns one file name per segment. Titles that sanitize to
// nothing become "Track NN". A name already taken, compared without case,
// gets the lowest " (n)" suffix that is still free.
func outputNames(segments []tracklist.Segment, ext string) []string {
	ext = strings.TrimPrefix(ext, ".")
	names := make([]string, len(segments))
	used := make(map[string]struct{}, len(segments))
	for i, seg := range segments {
		base := textutil.SanitizeFileName(seg.Title)
		if base == "" {
			base = fmt.Sprintf("Track %02d", seg.Number)
		}
		name := base
		for n := 2; ; n++ {
			if _, taken := used[strings.ToLower(name)]; !taken {
				break
			}
			name = fmt.Sprintf("%s (%d)", base, n)
		}
		used[strings.ToLower(name)] = struct{}{}
		names[i] = name + "." + ext
	}
	return names
}

// keepPath appends the media extension when the --keep target has none.
func keepPath(target, ext string) string {
	if ext == "" || filepath.Ext(target) != "" {
		return target
	}
	return target + "." + ext
}
