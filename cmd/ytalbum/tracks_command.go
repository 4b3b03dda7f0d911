package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ytalbum/internal/albumsplit"
	"ytalbum/internal/services"
	"ytalbum/internal/tracklist"
)

type trackJSON struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Start  int    `json:"start_seconds"`
	End    *int   `json:"end_seconds"`
}

func newTracksCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "tracks FILE",
		Short:       "Print the track list parsed from a description file",
		Args:        exactArgs(1, "a description file"),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				marker := services.ErrValidation
				if os.IsNotExist(err) {
					marker = services.ErrNotFound
				}
				return services.Wrap(marker, "tracks", "read", args[0], err)
			}
			segments := tracklist.Plan(tracklist.Extract(string(data)))
			if len(segments) == 0 {
				return albumsplit.ErrNoTrackList
			}

			orderErr := tracklist.CheckOrder(segments)
			if orderErr != nil {
				orderErr = services.Wrap(services.ErrValidation, "tracks", "check order", "", orderErr)
			}

			if asJSON {
				if orderErr != nil {
					return orderErr
				}
				rows := make([]trackJSON, 0, len(segments))
				for _, seg := range segments {
					row := trackJSON{Number: seg.Number, Title: seg.Title, Start: seg.Start}
					if seg.End.Valid {
						end := seg.End.Seconds
						row.End = &end
					}
					rows = append(rows, row)
				}
				return writeJSON(cmd, rows)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, albumsplit.TrackTable(segments, shouldColorize(out)))
			return orderErr
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the track list as JSON")
	return cmd
}
