package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

const consoleTimeLayout = "2006-01-02 15:04:05"

// consoleValue renders v for a key=value pair. Values that are empty or
// contain spaces, quotes or '=' are quoted so a line still splits cleanly.
func consoleValue(v slog.Value) string {
	v = v.Resolve()
	var s string
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Local().Format(consoleTimeLayout)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
