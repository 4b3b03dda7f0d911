package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ytalbum/internal/services"
	"ytalbum/internal/staging"
	"ytalbum/internal/tracklist"
)

func TestTracksCommandPrintsTable(t *testing.T) {
	dir := t.TempDir()
	descr := writeDescription(t, dir, cliDescription)

	out, _, err := runCLI(t, []string{"tracks", descr}, "", "")
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	requireContains(t, out, `"Second Song"`)
	requireContains(t, out, "1:00:03")
	requireContains(t, out, "END")
}

func TestTracksCommandJSON(t *testing.T) {
	dir := t.TempDir()
	descr := writeDescription(t, dir, cliDescription)

	out, _, err := runCLI(t, []string{"tracks", "--json", descr}, "", "")
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	var rows []trackJSON
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[1].Start != 225 || rows[1].End == nil || *rows[1].End != 3603 {
		t.Fatalf("unexpected second row %+v", rows[1])
	}
	if rows[2].End != nil {
		t.Fatalf("last track should be unbounded, got %d", *rows[2].End)
	}
}

func TestTracksCommandErrors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := runCLI(t, []string{"tracks", filepath.Join(dir, "missing.txt")}, "", "")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("missing file: got %v", err)
	}

	empty := writeDescription(t, dir, "no tracks here\n")
	_, _, err = runCLI(t, []string{"tracks", empty}, "", "")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("empty list: got %v", err)
	}

	inverted := writeDescription(t, dir, "0:00 One\n5:00 Two\n2:00 Three\n")
	for _, args := range [][]string{{"tracks", inverted}, {"tracks", "--json", inverted}} {
		out, _, err := runCLI(t, args, "", "")
		if !errors.Is(err, services.ErrValidation) || !errors.Is(err, tracklist.ErrInvertedSegment) {
			t.Fatalf("%v: expected inverted segment error, got %v", args, err)
		}
		if strings.Contains(out, "start_seconds") {
			t.Fatalf("%v: JSON written for an invalid track list:\n%s", args, out)
		}
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Config path: "+env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, target, ""); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}

func TestConfigValidateRejectsBadFile(t *testing.T) {
	env := setupCLITestEnv(t)
	bad := filepath.Join(env.baseDir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[audio]\nworkers = \"many\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, err := runCLI(t, []string{"config", "validate"}, bad, "")
	if services.ExitCode(err) != services.ExitUsage {
		t.Fatalf("exit code = %d for %v", services.ExitCode(err), err)
	}
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check"}, env.configPath, "")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "[OK]")

	env.cfg.Tools.FFmpeg = filepath.Join(env.baseDir, "missing", "ffmpeg")
	writeTestConfig(t, env.configPath, env.cfg)
	out, _, err = runCLI(t, []string{"check"}, env.configPath, "")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	requireContains(t, out, "[ERROR]")
}

func TestHistoryCommandEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"history"}, env.configPath, "")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded yet")

	_, _, err = runCLI(t, []string{"history", "deadbeef"}, env.configPath, "")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("unknown run: got %v", err)
	}
}

func TestStagingListAndClean(t *testing.T) {
	env := setupCLITestEnv(t)
	for i := range 2 {
		if _, err := staging.NewRun(env.cfg.Paths.StagingDir, fmt.Sprintf("leftover-%d", i)); err != nil {
			t.Fatalf("NewRun: %v", err)
		}
	}

	out, _, err := runCLI(t, []string{"staging", "list"}, env.configPath, "")
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	requireContains(t, out, "run-leftover-0")
	requireContains(t, out, "Total: 2 directories")

	out, _, err = runCLI(t, []string{"staging", "clean"}, env.configPath, "")
	if err != nil {
		t.Fatalf("staging clean: %v", err)
	}
	requireContains(t, out, "No staging directories to clean")

	out, _, err = runCLI(t, []string{"staging", "clean", "--all"}, env.configPath, "")
	if err != nil {
		t.Fatalf("staging clean --all: %v", err)
	}
	requireContains(t, out, "Removed 2 directories")
}

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusError, "binary not found", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "FFmpeg:", "[ERROR] binary not found")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusOK, "Ready", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green line, got %q", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	got := renderTable([]string{"A", "B"}, [][]string{{"only"}}, []columnAlignment{alignLeft, alignRight}, false)
	if !strings.Contains(got, "only") || strings.Count(got, "\n") < 4 {
		t.Fatalf("unexpected table:\n%s", got)
	}
}
