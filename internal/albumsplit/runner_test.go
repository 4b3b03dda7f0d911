package albumsplit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ytalbum/internal/config"
	"ytalbum/internal/description"
	"ytalbum/internal/history"
	"ytalbum/internal/services"
	"ytalbum/internal/services/ffmpeg"
	"ytalbum/internal/services/ytdl"
	"ytalbum/internal/tagging"
	"ytalbum/internal/testsupport"
	"ytalbum/internal/tracklist"
)

const albumDescription = `Full album, recorded live.

0:00 Intro
3:45 Second Song
1:00:03 Closing Time

Thanks for listening!`

type stubSource struct {
	desc description.Description
	err  error
}

func (s stubSource) Name() string { return "stub" }

func (s stubSource) Fetch(context.Context, string) (description.Description, error) {
	return s.desc, s.err
}

type stubDownloader struct {
	mu        sync.Mutex
	listing   string
	downloads []string
	err       error
}

func (d *stubDownloader) ListFormats(context.Context, string) (string, error) {
	return d.listing, nil
}

func (d *stubDownloader) SelectFormat(string) ytdl.Format {
	return ytdl.Format{ID: "140", Ext: "m4a", Label: "132k audio"}
}

func (d *stubDownloader) Download(_ context.Context, _ string, _ ytdl.Format, dest string) error {
	d.mu.Lock()
	d.downloads = append(d.downloads, dest)
	d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	return os.WriteFile(dest, []byte("media"), 0o644)
}

type stubCutter struct {
	mu       sync.Mutex
	requests []ffmpeg.CutRequest
	failOn   int
}

func (c *stubCutter) Cut(_ context.Context, req ffmpeg.CutRequest) error {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	if c.failOn > 0 && req.Start == c.failOn {
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "cut", "exit status 1", nil)
	}
	return os.WriteFile(req.Output, []byte("track"), 0o644)
}

func (c *stubCutter) byStart() map[int]ffmpeg.CutRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]ffmpeg.CutRequest, len(c.requests))
	for _, req := range c.requests {
		out[req.Start] = req
	}
	return out
}

type stubTagger struct {
	mu   sync.Mutex
	tags map[string]tagging.Tags
}

func (s *stubTagger) Apply(path string, tags tagging.Tags) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tags == nil {
		s.tags = make(map[string]tagging.Tags)
	}
	s.tags[filepath.Base(path)] = tags
	return nil
}

type stubConfirmer struct {
	answer bool
	asked  int
}

func (c *stubConfirmer) Confirm(context.Context, string) (bool, error) {
	c.asked++
	return c.answer, nil
}

type harness struct {
	cfg        *config.Config
	out        *bytes.Buffer
	downloader *stubDownloader
	cutter     *stubCutter
	tagger     *stubTagger
	confirmer  *stubConfirmer
	store      *history.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return &harness{
		cfg:        cfg,
		out:        &bytes.Buffer{},
		downloader: &stubDownloader{},
		cutter:     &stubCutter{},
		tagger:     &stubTagger{},
		confirmer:  &stubConfirmer{answer: true},
		store:      testsupport.MustOpenHistory(t, cfg),
	}
}

func (h *harness) runner(t *testing.T, opts Options, text string, extra ...Option) *Runner {
	t.Helper()
	if opts.URL == "" {
		opts.URL = "https://www.youtube.com/watch?v=abcdefghijk"
	}
	options := append([]Option{
		WithOutput(h.out, false),
		WithDescriptionSource(stubSource{desc: description.Description{Text: text, Title: "Live Album", Author: "The Band", Source: "stub"}}),
		WithDownloader(h.downloader),
		WithCutter(h.cutter),
		WithTagger(h.tagger),
		WithConfirmer(h.confirmer),
		WithHistory(h.store),
	}, extra...)
	runner, err := New(h.cfg, opts, options...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return runner
}

func TestRunSplitsEveryTrack(t *testing.T) {
	h := newHarness(t)
	result, err := h.runner(t, Options{}, albumDescription).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != history.StatusCompleted {
		t.Fatalf("status = %s, want completed", result.Status)
	}
	if h.confirmer.asked != 1 {
		t.Fatalf("confirmer asked %d times, want 1", h.confirmer.asked)
	}
	if len(result.Tracks) != 3 {
		t.Fatalf("tracks = %d, want 3", len(result.Tracks))
	}

	reqs := h.cutter.byStart()
	wantEnds := map[int]tracklist.Offset{0: tracklist.At(225), 225: tracklist.At(3603), 3603: {}}
	for start, end := range wantEnds {
		req, ok := reqs[start]
		if !ok {
			t.Fatalf("no cut starting at %d", start)
		}
		if req.End != end {
			t.Fatalf("cut at %d ends at %+v, want %+v", start, req.End, end)
		}
		if req.Metadata != nil {
			t.Fatalf("mp3 cut should rely on id3 tagging, got metadata %v", req.Metadata)
		}
	}

	for _, name := range []string{"Intro.mp3", "Second Song.mp3", "Closing Time.mp3"} {
		if _, err := os.Stat(filepath.Join(h.cfg.Paths.OutputDir, name)); err != nil {
			t.Fatalf("expected output %s: %v", name, err)
		}
	}
	tags := h.tagger.tags["Second Song.mp3"]
	if tags.Number != 2 || tags.Total != 3 || tags.Album != "Live Album" || tags.Artist != "The Band" {
		t.Fatalf("unexpected tags %+v", tags)
	}

	if _, err := os.Stat(filepath.Dir(result.Media)); !os.IsNotExist(err) {
		t.Fatalf("staging run directory should be removed, stat err = %v", err)
	}

	run, err := h.store.GetRun(context.Background(), result.RunID)
	if err != nil || run == nil {
		t.Fatalf("GetRun: %v %v", run, err)
	}
	if run.Status != history.StatusCompleted || run.TrackCount != 3 || run.Title != "Live Album" {
		t.Fatalf("unexpected history row %+v", run)
	}
	tracks, err := h.store.RunTracks(context.Background(), result.RunID)
	if err != nil {
		t.Fatalf("RunTracks: %v", err)
	}
	if len(tracks) != 3 {
		t.Fatalf("recorded %d tracks, want 3", len(tracks))
	}
	if !strings.Contains(h.out.String(), "Found this track list") {
		t.Fatalf("track list not printed: %q", h.out.String())
	}
}

func TestRunDeclinedIsNotAnError(t *testing.T) {
	h := newHarness(t)
	h.confirmer.answer = false

	result, err := h.runner(t, Options{}, albumDescription).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != history.StatusDeclined {
		t.Fatalf("status = %s, want declined", result.Status)
	}
	if !strings.Contains(h.out.String(), "canceling") {
		t.Fatalf("expected canceling message, got %q", h.out.String())
	}
	if len(h.downloader.downloads) != 0 {
		t.Fatalf("declined run should not download")
	}
	run, _ := h.store.GetRun(context.Background(), result.RunID)
	if run == nil || run.Status != history.StatusDeclined {
		t.Fatalf("history = %+v, want declined", run)
	}
}

func TestRunResolvesRelativeOutputDirectory(t *testing.T) {
	h := newHarness(t)
	t.Chdir(t.TempDir())
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}

	text := "0:00 -vn hidden\n1:00 A (2)\n2:00 A\n3:00 A\n"
	result, err := h.runner(t, Options{Yes: true, OutDir: "."}, text).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Tracks) != 4 {
		t.Fatalf("tracks = %d, want 4", len(result.Tracks))
	}

	seen := make(map[string]bool)
	for _, req := range h.cutter.requests {
		if !filepath.IsAbs(req.Output) || filepath.Dir(req.Output) != wd {
			t.Fatalf("output %q not inside %s", req.Output, wd)
		}
		if strings.HasPrefix(filepath.Base(req.Output), "-") {
			t.Fatalf("output name starts with a dash: %q", req.Output)
		}
		if seen[req.Output] {
			t.Fatalf("two cuts wrote %q", req.Output)
		}
		seen[req.Output] = true
	}
}

func TestRunYesSkipsConfirmation(t *testing.T) {
	h := newHarness(t)
	if _, err := h.runner(t, Options{Yes: true}, albumDescription).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.confirmer.asked != 0 {
		t.Fatalf("confirmer asked %d times with --yes", h.confirmer.asked)
	}
	if _, ok := h.runner(t, Options{Yes: true}, albumDescription).confirm.(AlwaysConfirm); !ok {
		t.Fatal("--yes should install AlwaysConfirm")
	}
}

func TestRunWithoutTrackList(t *testing.T) {
	h := newHarness(t)
	result, err := h.runner(t, Options{Yes: true}, "no timestamps here\n3:45    \n").Run(context.Background())
	if !errors.Is(err, ErrNoTrackList) || !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNoTrackList, got %v", err)
	}
	if services.ExitCode(err) != services.ExitNotFound {
		t.Fatalf("exit code = %d", services.ExitCode(err))
	}
	if result.Status != history.StatusNoTracks {
		t.Fatalf("status = %s, want no_tracks", result.Status)
	}
	if len(h.downloader.downloads) != 0 {
		t.Fatalf("no download expected")
	}
}

func TestRunRejectsInvertedTrackList(t *testing.T) {
	h := newHarness(t)
	_, err := h.runner(t, Options{Yes: true}, "0:00 One\n5:00 Two\n2:00 Three\n").Run(context.Background())
	if !errors.Is(err, services.ErrValidation) || !errors.Is(err, tracklist.ErrInvertedSegment) {
		t.Fatalf("expected inverted segment validation error, got %v", err)
	}
	if len(h.downloader.downloads) != 0 || len(h.cutter.requests) != 0 {
		t.Fatalf("inverted plan must stop before downloading")
	}
	if !strings.Contains(h.out.String(), "invalid") {
		t.Fatalf("table should flag the inverted segment: %q", h.out.String())
	}
}

func TestRunDryRunStopsAfterTable(t *testing.T) {
	h := newHarness(t)
	result, err := h.runner(t, Options{DryRun: true}, albumDescription).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Segments) != 3 || len(h.downloader.downloads) != 0 || h.confirmer.asked != 0 {
		t.Fatalf("dry run did too much: %+v", result)
	}
	runs, err := h.store.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("dry run should not be recorded, got %d runs", len(runs))
	}
}

func TestRunUseRequiresExistingFile(t *testing.T) {
	h := newHarness(t)
	missing := filepath.Join(testsupport.BaseDir(h.cfg), "missing.m4a")
	_, err := h.runner(t, Options{Yes: true, Use: missing}, albumDescription).Run(context.Background())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(h.downloader.downloads) != 0 {
		t.Fatalf("--use must never download")
	}
}

func TestRunUseKeepsSourceFile(t *testing.T) {
	h := newHarness(t)
	media := filepath.Join(testsupport.BaseDir(h.cfg), "album.m4a")
	testsupport.WriteMedia(t, media, 1024)

	result, err := h.runner(t, Options{Yes: true, Use: media}, albumDescription).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Media != media {
		t.Fatalf("media = %s, want %s", result.Media, media)
	}
	if _, err := os.Stat(media); err != nil {
		t.Fatalf("reused media must survive: %v", err)
	}
	for _, req := range h.cutter.requests {
		if req.Source != media {
			t.Fatalf("cut source = %s, want %s", req.Source, media)
		}
	}
	if len(h.downloader.downloads) != 0 {
		t.Fatalf("--use must never download")
	}
}

func TestRunKeepMovesDownload(t *testing.T) {
	h := newHarness(t)
	keep := filepath.Join(testsupport.BaseDir(h.cfg), "kept", "album")

	result, err := h.runner(t, Options{Yes: true, Keep: keep}, albumDescription).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Kept != keep+".m4a" {
		t.Fatalf("kept = %s, want %s.m4a", result.Kept, keep)
	}
	data, err := os.ReadFile(result.Kept)
	if err != nil || string(data) != "media" {
		t.Fatalf("kept media unreadable: %q %v", data, err)
	}
}

func TestRunCutFailureMarksRunFailed(t *testing.T) {
	h := newHarness(t)
	h.cutter.failOn = 225
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	result, err := h.runner(t, Options{Yes: true, Workers: 1}, albumDescription, WithLogger(logger)).Run(context.Background())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	for _, want := range []string{"level=ERROR", "event_type=split_failed", "ytalbum check"} {
		if !strings.Contains(logs.String(), want) {
			t.Fatalf("expected %q in logs:\n%s", want, logs.String())
		}
	}
	if result.Status != history.StatusFailed {
		t.Fatalf("status = %s, want failed", result.Status)
	}
	run, _ := h.store.GetRun(context.Background(), result.RunID)
	if run == nil || run.Status != history.StatusFailed || run.Error == "" {
		t.Fatalf("history = %+v, want failed with message", run)
	}
}

func TestRunPassesMetadataForOtherContainers(t *testing.T) {
	h := newHarness(t)
	h.cfg.Audio.Extension = "m4a"

	if _, err := h.runner(t, Options{Yes: true, Genre: "Jazz"}, albumDescription).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	req := h.cutter.byStart()[225]
	got := map[string]string{}
	for _, m := range req.Metadata {
		got[m.Key] = m.Value
	}
	if got["title"] != "Second Song" || got["track"] != "2/3" || got["genre"] != "Jazz" {
		t.Fatalf("unexpected metadata %v", got)
	}
	if len(h.tagger.tags) != 0 {
		t.Fatalf("id3 tagger should not touch m4a files")
	}
}

func TestRunDescriptionFailure(t *testing.T) {
	h := newHarness(t)
	runner, err := New(h.cfg, Options{URL: "https://example.com/v", Yes: true},
		WithDescriptionSource(stubSource{err: description.ErrNoDescription}),
		WithDownloader(h.downloader),
		WithCutter(h.cutter),
		WithHistory(h.store),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := runner.Run(context.Background())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if result.Status != history.StatusFailed {
		t.Fatalf("status = %s, want failed", result.Status)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cases := []Options{
		{},
		{URL: "u", Workers: -1},
		{URL: "u", Keep: "a", Use: "b"},
	}
	for _, opts := range cases {
		if _, err := New(cfg, opts); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("New(%+v) = %v, want validation error", opts, err)
		}
	}
}
