package main

import (
	"github.com/spf13/cobra"

	"ytalbum/internal/albumsplit"
	"ytalbum/internal/logging"
)

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var opts albumsplit.Options

	cmd := &cobra.Command{
		Use:   "split URL",
		Short: "Download a video and split it into tagged tracks",
		Long: `Download a video, read the track list from its description, and cut the
audio into one file per track.

The description is scanned for lines starting with a timestamp ("3:45 Title"
or "1:02:03 Title"). Each track runs until the next one starts; the last one
runs to the end of the media. The track list is shown for confirmation
before anything is downloaded unless --yes is given.`,
		Args: exactArgs(1, "a video URL"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			opts.URL = args[0]

			out := cmd.OutOrStdout()
			options := []albumsplit.Option{
				albumsplit.WithLogger(logger),
				albumsplit.WithOutput(out, shouldColorize(out)),
				albumsplit.WithConfirmer(albumsplit.PromptConfirmer{In: cmd.InOrStdin(), Out: out}),
			}
			if !opts.DryRun {
				store, err := ctx.openHistory()
				if err != nil {
					logging.WarnWithContext(cmd.Context(), logger, "run history unavailable", "history_open_failed",
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "check paths.history_db or set it to \"\""),
						logging.String(logging.FieldImpact, "this run will not appear in history"),
					)
				}
				if store != nil {
					defer store.Close()
					options = append(options, albumsplit.WithHistory(store))
				}
			}

			runner, err := albumsplit.New(cfg, opts, options...)
			if err != nil {
				return err
			}
			_, err = runner.Run(cmd.Context())
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.YoutubeDL, "youtube-dl", "", "Alternate youtube-dl compatible binary")
	flags.StringVar(&opts.FFmpeg, "ffmpeg", "", "Alternate ffmpeg binary")
	flags.StringVarP(&opts.OutDir, "out", "o", "", "Output directory (created with parents)")
	flags.BoolVarP(&opts.Yes, "yes", "y", false, "Skip track list confirmation")
	flags.StringVar(&opts.Keep, "keep", "", "Keep the downloaded media at this path")
	flags.StringVar(&opts.Use, "use", "", "Reuse an existing media file instead of downloading")
	flags.StringVar(&opts.Descr, "descr", "", "Read the description from a file instead of the video")
	flags.StringVar(&opts.Artist, "artist", "", "Artist tag (defaults to the channel name)")
	flags.StringVar(&opts.Album, "album", "", "Album tag (defaults to the video title)")
	flags.StringVar(&opts.Genre, "genre", "", "Genre tag")
	flags.IntVar(&opts.Workers, "workers", 0, "Parallel cuts (defaults to audio.workers)")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "Print the track list and stop")

	return cmd
}
