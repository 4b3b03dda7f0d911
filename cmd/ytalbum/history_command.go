package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ytalbum/internal/history"
	"ytalbum/internal/services"
	"ytalbum/internal/textutil"
	"ytalbum/internal/tracklist"
)

const shortIDLength = 8

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history [RUN]",
		Short: "Show recent runs, or the tracks of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			if store == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Run history is disabled (paths.history_db is empty)")
				return nil
			}
			defer store.Close()

			if len(args) == 1 {
				run, err := store.FindRun(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return services.Wrap(services.ErrValidation, "history", "find", "", err)
				}
				if run == nil {
					return services.Wrap(services.ErrNotFound, "history", "find", "no run matches "+args[0], nil)
				}
				tracks, err := store.RunTracks(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, map[string]any{"run": run, "tracks": tracks})
				}
				printRunDetail(cmd.OutOrStdout(), *run, tracks)
				return nil
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.StartedAt.Local().Format("2006-01-02 15:04"),
					textutil.Label(string(run.Status)),
					strconv.Itoa(run.TrackCount),
					formatBytes(run.MediaBytes),
					formatRunDuration(run.Duration()),
					runLabel(run),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"ID", "Started", "Status", "Tracks", "Media", "Took", "Title"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				shouldColorize(out),
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "Number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func printRunDetail(out io.Writer, run history.Run, tracks []history.Track) {
	fmt.Fprintf(out, "Run:      %s\n", run.ID)
	fmt.Fprintf(out, "Source:   %s\n", run.SourceURL)
	if run.Title != "" {
		fmt.Fprintf(out, "Title:    %s\n", run.Title)
	}
	fmt.Fprintf(out, "Status:   %s\n", textutil.Label(string(run.Status)))
	fmt.Fprintf(out, "Started:  %s (%s)\n", run.StartedAt.Local().Format(time.DateTime), humanize.Time(run.StartedAt))
	if d := run.Duration(); d > 0 {
		fmt.Fprintf(out, "Took:     %s\n", formatRunDuration(d))
	}
	if run.MediaBytes > 0 {
		fmt.Fprintf(out, "Media:    %s\n", formatBytes(run.MediaBytes))
	}
	if run.OutputDir != "" {
		fmt.Fprintf(out, "Output:   %s\n", run.OutputDir)
	}
	if run.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", run.Error)
	}
	if len(tracks) == 0 {
		return
	}
	fmt.Fprintln(out)
	rows := make([][]string, 0, len(tracks))
	for _, track := range tracks {
		rows = append(rows, []string{
			strconv.Itoa(track.Number),
			track.Title,
			tracklist.FormatSeconds(track.Start),
			track.End.String(),
			track.OutputPath,
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"#", "Title", "From", "To", "File"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
		shouldColorize(out),
	))
}

func shortID(id string) string {
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}
	return id
}

func runLabel(run history.Run) string {
	if run.Title != "" {
		return run.Title
	}
	return run.SourceURL
}

func formatBytes(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(n))
}

func formatRunDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
