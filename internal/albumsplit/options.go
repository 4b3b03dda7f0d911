package albumsplit

import (
	"strings"

	"ytalbum/internal/config"
	"ytalbum/internal/services"
)

// Options holds the per-run flags of the split command.
type Options struct {
	// URL is the video to split.
	URL string
	// YoutubeDL and FFmpeg override the configured binaries.
	YoutubeDL string
	FFmpeg    string
	// OutDir overrides paths.output_dir.
	OutDir string
	// Yes skips the track-list confirmation.
	Yes bool
	// Keep moves the downloaded media to this path instead of deleting it.
	Keep string
	// Use reuses an existing media file instead of downloading.
	Use string
	// Descr reads the description from a local file.
	Descr  string
	Artist string
	Album  string
	Genre  string
	// Workers overrides audio.workers when positive.
	Workers int
	// DryRun prints the track list and stops.
	DryRun bool
}

// Validate checks flag combinations that make a run impossible.
func (o Options) Validate() error {
	if strings.TrimSpace(o.URL) == "" {
		return services.Wrap(services.ErrValidation, "split", "options", "video URL required", nil)
	}
	if o.Workers < 0 {
		return services.Wrap(services.ErrValidation, "split", "options", "workers must be positive", nil)
	}
	if o.Keep != "" && o.Use != "" {
		return services.Wrap(services.ErrValidation, "split", "options", "--keep and --use cannot be combined", nil)
	}
	return nil
}

// settings merges Options over the configuration.
type settings struct {
	outDir  string
	workers int
	artist  string
	album   string
	genre   string
}

// resolveSettings merges opts over cfg. The output directory is made absolute
// so track paths handed to ffmpeg never start with a dash.
func resolveSettings(cfg *config.Config, opts Options) (settings, error) {
	s := settings{
		outDir:  cfg.Paths.OutputDir,
		workers: cfg.Audio.Workers,
		artist:  cfg.Tags.Artist,
		album:   cfg.Tags.Album,
		genre:   cfg.Tags.Genre,
	}
	if v := strings.TrimSpace(opts.OutDir); v != "" {
		s.outDir = v
	}
	outDir, err := config.ExpandPath(s.outDir)
	if err != nil {
		return s, services.Wrap(services.ErrValidation, "split", "options", "output directory", err)
	}
	s.outDir = outDir
	if opts.Workers > 0 {
		s.workers = opts.Workers
	}
	if s.workers <= 0 {
		s.workers = 1
	}
	if v := strings.TrimSpace(opts.Artist); v != "" {
		s.artist = v
	}
	if v := strings.TrimSpace(opts.Album); v != "" {
		s.album = v
	}
	if v := strings.TrimSpace(opts.Genre); v != "" {
		s.genre = v
	}
	return s, nil
}
