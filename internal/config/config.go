package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database locations.
type Paths struct {
	OutputDir  string `toml:"output_dir"`
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
	HistoryDB  string `toml:"history_db"`
}

// Tools contains the external binaries and their limits.
type Tools struct {
	YoutubeDL       string   `toml:"youtube_dl"`
	YoutubeDLArgs   []string `toml:"youtube_dl_args"`
	FFmpeg          string   `toml:"ffmpeg"`
	DownloadTimeout int      `toml:"download_timeout"`
	CutTimeout      int      `toml:"cut_timeout"`
	PreferredFormat string   `toml:"preferred_format"`
	PreferredExt    string   `toml:"preferred_ext"`
}

// Source controls how the description text is obtained.
type Source struct {
	UseAPI         bool   `toml:"use_api"`
	UserAgent      string `toml:"user_agent"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Audio contains transcoding settings for the cut tracks.
type Audio struct {
	Codec        string `toml:"codec"`
	Bitrate      string `toml:"bitrate"`
	Extension    string `toml:"extension"`
	Workers      int    `toml:"workers"`
	ID3v2Version int    `toml:"id3v2_version"`
}

// Tags contains default ID3 values applied when flags do not override them.
type Tags struct {
	Enabled    bool   `toml:"enabled"`
	Artist     string `toml:"artist"`
	Album      string `toml:"album"`
	Genre      string `toml:"genre"`
	WriteTitle bool   `toml:"write_title"`
	WriteTotal bool   `toml:"write_total"`
}

// Staging controls cleanup of leftover downloads.
type Staging struct {
	StaleAfterHours int `toml:"stale_after_hours"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ytalbum.
//
// Configuration sections by subsystem:
//   - Paths: output, staging, log directories and the history database
//   - Tools: youtube-dl and ffmpeg binaries, timeouts, format preference
//   - Source: description retrieval (metadata API, page fetch)
//   - Audio: codec, bitrate, container extension, parallel cuts
//   - Tags: default ID3 tag values
//   - Staging: stale download cleanup
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Tools   Tools   `toml:"tools"`
	Source  Source  `toml:"source"`
	Audio   Audio   `toml:"audio"`
	Tags    Tags    `toml:"tags"`
	Staging Staging `toml:"staging"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ytalbum.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the staging and log directories. The output
// directory is created per run because it can be overridden on the command line.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StagingDir, c.Paths.LogDir}
	if db := strings.TrimSpace(c.Paths.HistoryDB); db != "" {
		dirs = append(dirs, filepath.Dir(db))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DownloadTimeout returns the youtube-dl time limit as a duration.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Tools.DownloadTimeout) * time.Second
}

// CutTimeout returns the per-track ffmpeg time limit as a duration.
func (c *Config) CutTimeout() time.Duration {
	return time.Duration(c.Tools.CutTimeout) * time.Second
}

// RequestTimeout returns the description fetch time limit as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Source.RequestTimeout) * time.Second
}

// StaleAfter returns the age at which leftover staging files are removed.
func (c *Config) StaleAfter() time.Duration {
	return time.Duration(c.Staging.StaleAfterHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
