package albumsplit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ytalbum/internal/config"
	"ytalbum/internal/description"
	"ytalbum/internal/fileutil"
	"ytalbum/internal/history"
	"ytalbum/internal/logging"
	"ytalbum/internal/services"
	"ytalbum/internal/services/ffmpeg"
	"ytalbum/internal/services/ytdl"
	"ytalbum/internal/staging"
	"ytalbum/internal/tagging"
	"ytalbum/internal/tracklist"
)

// ErrNoTrackList reports a description without any timestamped lines.
var ErrNoTrackList = fmt.Errorf("%w: track list", services.ErrNotFound)

// ConfirmPrompt is shown before anything is downloaded.
const ConfirmPrompt = `Confirm by typing "yes": `

// Downloader fetches the source media. *ytdl.Client satisfies it.
type Downloader interface {
	ListFormats(ctx context.Context, url string) (string, error)
	SelectFormat(listing string) ytdl.Format
	Download(ctx context.Context, url string, format ytdl.Format, dest string) error
}

// Cutter extracts one segment. *ffmpeg.Client satisfies it.
type Cutter interface {
	Cut(ctx context.Context, req ffmpeg.CutRequest) error
}

// TagWriter writes tags into a finished track. *tagging.Tagger satisfies it.
type TagWriter interface {
	Apply(path string, tags tagging.Tags) error
}

// Recorder persists run history. *history.Store satisfies it.
type Recorder interface {
	BeginRun(ctx context.Context, run history.Run) error
	UpdateRun(ctx context.Context, id, title string, mediaBytes int64) error
	RecordTrack(ctx context.Context, track history.Track) error
	FinishRun(ctx context.Context, id string, status history.Status, trackCount int, runErr error) error
}

// Output is one written track.
type Output struct {
	Segment tracklist.Segment
	Path    string
}

// Result summarizes a finished run.
type Result struct {
	RunID    string
	Status   history.Status
	Title    string
	Segments []tracklist.Segment
	// Media is the file the tracks were cut from.
	Media string
	// Kept is where --keep moved the media, if anywhere.
	Kept   string
	Tracks []Output
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithOutput sets where the track list, prompts and progress are printed.
func WithOutput(w io.Writer, colorize bool) Option {
	return func(r *Runner) {
		if w != nil {
			r.out = w
		}
		r.color = colorize
	}
}

// WithDescriptionSource replaces the default description lookup.
func WithDescriptionSource(src description.Source) Option {
	return func(r *Runner) { r.source = src }
}

// WithDownloader replaces the youtube-dl client.
func WithDownloader(d Downloader) Option {
	return func(r *Runner) { r.downloader = d }
}

// WithCutter replaces the ffmpeg client.
func WithCutter(c Cutter) Option {
	return func(r *Runner) { r.cutter = c }
}

// WithTagger replaces the ID3 tagger.
func WithTagger(t TagWriter) Option {
	return func(r *Runner) { r.tagger = t }
}

// WithHistory records runs in h. A nil Recorder disables history.
func WithHistory(h Recorder) Option {
	return func(r *Runner) { r.history = h }
}

// WithConfirmer sets how the track list is confirmed.
func WithConfirmer(c Confirmer) Option {
	return func(r *Runner) { r.confirm = c }
}

// Runner executes one split run.
type Runner struct {
	cfg      *config.Config
	opts     Options
	settings settings

	logger *slog.Logger
	out    io.Writer
	outMu  sync.Mutex
	color  bool

	source     description.Source
	downloader Downloader
	cutter     Cutter
	tagger     TagWriter
	history    Recorder
	confirm    Confirmer
}

// New validates opts and builds a Runner. Collaborators not supplied through
// options are constructed from cfg, with the binaries in opts taking
// precedence over the configured ones.
func New(cfg *config.Config, opts Options, options ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "split", "init", "configuration required", nil)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	resolved, err := resolveSettings(cfg, opts)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:      cfg,
		opts:     opts,
		settings: resolved,
		logger:   logging.NewNop(),
		out:      io.Discard,
	}
	for _, option := range options {
		option(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "split")

	if r.source == nil {
		r.source = r.defaultSource()
	}
	if r.downloader == nil && strings.TrimSpace(opts.Use) == "" {
		client, err := ytdl.New(firstNonEmpty(opts.YoutubeDL, cfg.Tools.YoutubeDL), cfg.Tools.DownloadTimeout,
			ytdl.WithLogger(r.logger),
			ytdl.WithExtraArgs(cfg.Tools.YoutubeDLArgs),
			ytdl.WithPreferred(cfg.Tools.PreferredFormat, cfg.Tools.PreferredExt),
		)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "split", "init", "youtube-dl", err)
		}
		r.downloader = client
	}
	if r.cutter == nil {
		client, err := ffmpeg.New(firstNonEmpty(opts.FFmpeg, cfg.Tools.FFmpeg), cfg.Tools.CutTimeout, ffmpeg.WithLogger(r.logger))
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "split", "init", "ffmpeg", err)
		}
		r.cutter = client
	}
	if r.tagger == nil && cfg.Tags.Enabled {
		r.tagger = tagging.NewTagger(tagging.Options{
			Version:    cfg.Audio.ID3v2Version,
			WriteTitle: cfg.Tags.WriteTitle,
			WriteTotal: cfg.Tags.WriteTotal,
		})
	}
	switch {
	case opts.Yes:
		r.confirm = AlwaysConfirm{}
	case r.confirm == nil:
		r.confirm = PromptConfirmer{In: os.Stdin, Out: r.out}
	}
	return r, nil
}

func (r *Runner) defaultSource() description.Source {
	if path := strings.TrimSpace(r.opts.Descr); path != "" {
		return description.FileSource{Path: path}
	}
	var sources []description.Source
	if r.cfg.Source.UseAPI {
		sources = append(sources, description.NewAPISource(r.cfg.RequestTimeout()))
	}
	sources = append(sources, description.NewPageSource(r.cfg.RequestTimeout(), r.cfg.Source.UserAgent))
	return description.NewChain(r.logger, sources...)
}

// Run executes the pipeline. Declining the confirmation is not an error: the
// result carries history.StatusDeclined and a nil error.
func (r *Runner) Run(ctx context.Context) (result Result, err error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	result = Result{RunID: runID, Status: history.StatusRunning}
	logger := r.logger

	recording := r.history != nil && !r.opts.DryRun
	if recording {
		begin := history.Run{ID: runID, SourceURL: r.opts.URL, OutputDir: r.settings.outDir}
		if berr := r.history.BeginRun(ctx, begin); berr != nil {
			logging.WarnWithContext(ctx, logger, "run history unavailable", "history_begin_failed",
				logging.Error(berr),
				logging.String(logging.FieldErrorHint, "check paths.history_db"),
				logging.String(logging.FieldImpact, "this run will not appear in history"),
			)
			recording = false
		}
	}
	defer func() {
		result.Status = finalStatus(result.Status, err)
		if result.Status == history.StatusFailed {
			logging.ErrorWithContext(ctx, logger, "split failed", "split_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, failureHint(err)),
			)
		}
		if !recording {
			return
		}
		if ferr := r.history.FinishRun(context.WithoutCancel(ctx), runID, result.Status, len(result.Tracks), err); ferr != nil {
			logging.WarnWithContext(ctx, logger, "failed to finish run history", "history_finish_failed",
				logging.Error(ferr),
				logging.String(logging.FieldImpact, "run stays marked as running in history"),
			)
		}
	}()

	desc, err := r.source.Fetch(services.WithStage(ctx, "description"), r.opts.URL)
	if err != nil {
		return result, err
	}
	result.Title = desc.Title

	tracks := tracklist.Extract(desc.Text)
	if len(tracks) == 0 {
		r.printf("No track list found in the description (%s).\n", desc.Source)
		return result, ErrNoTrackList
	}
	segments := tracklist.Plan(tracks)
	result.Segments = segments
	logger.InfoContext(ctx, "track list extracted",
		logging.Int("tracks", len(segments)),
		logging.String("source", desc.Source),
	)

	r.printf("Found this track list:\n%s\n", TrackTable(segments, r.color))
	if err := tracklist.CheckOrder(segments); err != nil {
		return result, services.Wrap(services.ErrValidation, "plan", "check order", "track list is not in ascending order", err)
	}

	if r.opts.DryRun {
		result.Status = history.StatusCompleted
		return result, nil
	}
	ok, err := r.confirm.Confirm(ctx, ConfirmPrompt)
	if err != nil {
		if ctx.Err() != nil {
			return result, services.Wrap(services.ErrCanceled, "confirm", "", "", err)
		}
		return result, services.Wrap(services.ErrTransient, "confirm", "read answer", "", err)
	}
	if !ok {
		r.printf("canceling\n")
		result.Status = history.StatusDeclined
		return result, nil
	}

	lock, err := staging.AcquireLock(r.cfg.Paths.StagingDir)
	if err != nil {
		marker := services.ErrConfiguration
		if errors.Is(err, staging.ErrLocked) {
			marker = services.ErrTransient
		}
		return result, services.Wrap(marker, "staging", "lock", r.cfg.Paths.StagingDir, err)
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			logger.WarnContext(ctx, "failed to release staging lock", logging.Error(rerr))
		}
	}()
	cleaned := staging.CleanStale(ctx, r.cfg.Paths.StagingDir, r.cfg.StaleAfter(), logger)
	if len(cleaned.Removed) > 0 {
		logger.InfoContext(ctx, "removed stale downloads", logging.Int("count", len(cleaned.Removed)))
	}

	media, cleanup, err := r.prepareMedia(ctx, runID, recording, desc.Title)
	if err != nil {
		return result, err
	}
	defer cleanup()
	result.Media = media

	outputs, err := r.cutAll(ctx, runID, media, segments, desc, recording)
	result.Tracks = outputs
	if err != nil {
		return result, err
	}

	if keep := strings.TrimSpace(r.opts.Keep); keep != "" {
		dest := keepPath(keep, strings.TrimPrefix(filepath.Ext(media), "."))
		if err := fileutil.MoveFile(media, dest); err != nil {
			return result, services.Wrap(services.ErrTransient, "keep", "move media", dest, err)
		}
		result.Kept = dest
		r.printf("Kept the download at %s\n", dest)
	}

	result.Status = history.StatusCompleted
	r.printf("Wrote %d tracks to %s\n", len(outputs), r.settings.outDir)
	logger.InfoContext(ctx, "split completed",
		logging.Int("tracks", len(outputs)),
		logging.String("output_dir", r.settings.outDir),
	)
	return result, nil
}

// prepareMedia returns the media path and a cleanup func that removes the
// run's staging directory. Reused media is never removed.
func (r *Runner) prepareMedia(ctx context.Context, runID string, recording bool, title string) (string, func(), error) {
	ctx = services.WithStage(ctx, "download")
	if use := strings.TrimSpace(r.opts.Use); use != "" {
		if !fileutil.Exists(use) {
			return "", nil, services.Wrap(services.ErrValidation, "download", "reuse", fmt.Sprintf("media file %s does not exist", use), nil)
		}
		r.printf("Reusing %s\n", use)
		r.noteMedia(ctx, runID, recording, title, use)
		return use, func() {}, nil
	}

	run, err := staging.NewRun(r.cfg.Paths.StagingDir, runID)
	if err != nil {
		return "", nil, services.Wrap(services.ErrConfiguration, "download", "staging", r.cfg.Paths.StagingDir, err)
	}
	cleanup := func() {
		if err := run.Remove(); err != nil {
			logging.WarnWithContext(ctx, r.logger, "failed to remove staging directory", "staging_cleanup_failed",
				logging.String("path", run.Dir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "stale download is removed on a later run"),
			)
		}
	}

	listing, err := r.downloader.ListFormats(ctx, r.opts.URL)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	format := r.downloader.SelectFormat(listing)
	dest := run.MediaPath(format.Ext)
	r.printf("Downloading %s (%s)\n", r.opts.URL, format.Label)
	r.logger.InfoContext(ctx, "download started",
		logging.String("format", format.ID),
		logging.String("path", dest),
	)
	if err := r.downloader.Download(ctx, r.opts.URL, format, dest); err != nil {
		cleanup()
		return "", nil, err
	}
	r.noteMedia(ctx, runID, recording, title, dest)
	return dest, cleanup, nil
}

func (r *Runner) noteMedia(ctx context.Context, runID string, recording bool, title, path string) {
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	r.logger.InfoContext(ctx, "media ready",
		logging.String("path", path),
		logging.String("size", humanize.Bytes(uint64(size))),
	)
	if !recording {
		return
	}
	if err := r.history.UpdateRun(ctx, runID, title, size); err != nil {
		r.logger.WarnContext(ctx, "failed to update run history", logging.Error(err))
	}
}

func (r *Runner) cutAll(ctx context.Context, runID, media string, segments []tracklist.Segment, desc description.Description, recording bool) ([]Output, error) {
	outDir := r.settings.outDir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "cut", "output directory", outDir, err)
	}
	names := outputNames(segments, r.cfg.Audio.Extension)
	total := len(segments)
	album := firstNonEmpty(r.settings.album, desc.Title)
	artist := firstNonEmpty(r.settings.artist, desc.Author)

	written := make([]*Output, total)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.settings.workers)
	for i, seg := range segments {
		g.Go(func() error {
			tctx := services.WithTrack(services.WithStage(gctx, "cut"), seg.Number)
			path := filepath.Join(outDir, names[i])
			tags := tagging.Tags{
				Title:  seg.Title,
				Artist: artist,
				Album:  album,
				Genre:  r.settings.genre,
				Number: seg.Number,
				Total:  total,
			}
			r.printf("Cutting %d/%d %q from %s to %s\n", seg.Number, total, seg.Title, tracklist.FormatSeconds(seg.Start), seg.End)
			req := ffmpeg.CutRequest{
				Source:       media,
				Output:       path,
				Start:        seg.Start,
				End:          seg.End,
				Codec:        r.cfg.Audio.Codec,
				Bitrate:      r.cfg.Audio.Bitrate,
				ID3v2Version: r.cfg.Audio.ID3v2Version,
				Metadata:     r.metadata(path, tags),
			}
			if err := r.cutter.Cut(tctx, req); err != nil {
				return err
			}
			if r.tagger != nil && r.cfg.Tags.Enabled && tagging.Supports(path) {
				if err := r.tagger.Apply(path, tags); err != nil {
					return services.Wrap(services.ErrTransient, "tag", "write id3", path, err)
				}
			}
			written[i] = &Output{Segment: seg, Path: path}
			r.logger.DebugContext(tctx, "track written", logging.String("path", path))
			if recording {
				rec := history.Track{RunID: runID, Number: seg.Number, Title: seg.Title, Start: seg.Start, End: seg.End, OutputPath: path}
				if err := r.history.RecordTrack(tctx, rec); err != nil {
					r.logger.WarnContext(tctx, "failed to record track", logging.Error(err))
				}
			}
			return nil
		})
	}
	err := g.Wait()

	outputs := make([]Output, 0, total)
	for _, out := range written {
		if out != nil {
			outputs = append(outputs, *out)
		}
	}
	if err != nil && ctx.Err() != nil && !errors.Is(err, services.ErrCanceled) {
		err = services.Wrap(services.ErrCanceled, "cut", "", "", err)
	}
	return outputs, err
}

// metadata returns ffmpeg -metadata pairs for containers the ID3 tagger does
// not handle.
func (r *Runner) metadata(path string, tags tagging.Tags) []ffmpeg.Metadata {
	if !r.cfg.Tags.Enabled || tagging.Supports(path) {
		return nil
	}
	track := strconv.Itoa(tags.Number)
	if r.cfg.Tags.WriteTotal && tags.Total > 0 {
		track += "/" + strconv.Itoa(tags.Total)
	}
	var meta []ffmpeg.Metadata
	add := func(key, value string) {
		if value != "" {
			meta = append(meta, ffmpeg.Metadata{Key: key, Value: value})
		}
	}
	if r.cfg.Tags.WriteTitle {
		add("title", tags.Title)
	}
	add("artist", tags.Artist)
	add("album", tags.Album)
	add("genre", tags.Genre)
	add("track", track)
	return meta
}

func (r *Runner) printf(format string, args ...any) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

func finalStatus(current history.Status, err error) history.Status {
	switch {
	case err == nil:
		if current.Terminal() {
			return current
		}
		return history.StatusCompleted
	case errors.Is(err, ErrNoTrackList):
		return history.StatusNoTracks
	case errors.Is(err, services.ErrCanceled), errors.Is(err, context.Canceled):
		return history.StatusCanceled
	default:
		return history.StatusFailed
	}
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrExternalTool):
		return "run ytalbum check to verify youtube-dl and ffmpeg"
	case errors.Is(err, services.ErrValidation):
		return "fix the track list or flags and rerun"
	case errors.Is(err, services.ErrTransient):
		return "another run holds the staging lock; retry when it finishes"
	default:
		return "check logs for details"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
