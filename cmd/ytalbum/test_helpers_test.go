package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ytalbum/internal/config"
	"ytalbum/internal/testsupport"
)

const fakeYoutubeDL = `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "2021.12.17"
  exit 0
fi
if [ "$1" = "-F" ]; then
  echo "format code  extension  resolution note"
  echo "140          m4a        audio only DASH audio  129k"
  exit 0
fi
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; shift; fi
  shift
done
printf 'media' > "$out"
`

const fakeFFmpeg = `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "ffmpeg version 6.1"
  exit 0
fi
for last; do :; done
printf 'track' > "$last"
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("YTALBUM_YOUTUBE_DL", "")
	t.Setenv("YTALBUM_FFMPEG", "")

	binDir := filepath.Join(base, "bin")
	cfg.Tools.YoutubeDL = writeScript(t, binDir, "youtube-dl", fakeYoutubeDL)
	cfg.Tools.FFmpeg = writeScript(t, binDir, "ffmpeg", fakeFFmpeg)
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	configPath := filepath.Join(base, "ytalbum.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
output_dir = %q
staging_dir = %q
log_dir = %q
history_db = %q

[tools]
youtube_dl = %q
ffmpeg = %q

[source]
use_api = false

[audio]
extension = "m4a"
workers = 1

[logging]
level = "error"
`,
		cfg.Paths.OutputDir,
		cfg.Paths.StagingDir,
		cfg.Paths.LogDir,
		cfg.Paths.HistoryDB,
		cfg.Tools.YoutubeDL,
		cfg.Tools.FFmpeg,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeDescription(t *testing.T, dir, text string) string {
	t.Helper()
	return testsupport.WriteText(t, dir, "description.txt", text)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
