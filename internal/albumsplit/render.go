package albumsplit

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ytalbum/internal/tracklist"
)

// TrackTable renders the planned segments for confirmation. Inverted
// segments are flagged in the Length column.
func TrackTable(segments []tracklist.Segment, colorize bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if colorize {
		tw.Style().Color.Header = text.Colors{text.Bold, text.FgCyan}
	}
	tw.AppendHeader(table.Row{"#", "Title", "From", "To", "Length"})
	for _, seg := range segments {
		tw.AppendRow(table.Row{
			strconv.Itoa(seg.Number),
			fmt.Sprintf("%q", seg.Title),
			tracklist.FormatSeconds(seg.Start),
			seg.End.String(),
			segmentLength(seg, colorize),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func segmentLength(seg tracklist.Segment, colorize bool) string {
	if seg.Inverted() {
		if colorize {
			return text.FgRed.Sprint("invalid")
		}
		return "invalid"
	}
	length, ok := seg.Duration()
	if !ok {
		return "-"
	}
	return tracklist.FormatSeconds(length)
}
