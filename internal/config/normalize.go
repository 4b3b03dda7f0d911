package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeSource()
	c.normalizeAudio()
	c.normalizeTags()
	if c.Staging.StaleAfterHours < 0 {
		c.Staging.StaleAfterHours = 0
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	// An explicitly empty history_db disables run history.
	if c.Paths.HistoryDB, err = expandPath(strings.TrimSpace(c.Paths.HistoryDB)); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	if value, ok := os.LookupEnv("YTALBUM_YOUTUBE_DL"); ok && strings.TrimSpace(value) != "" {
		c.Tools.YoutubeDL = value
	}
	if value, ok := os.LookupEnv("YTALBUM_FFMPEG"); ok && strings.TrimSpace(value) != "" {
		c.Tools.FFmpeg = value
	}
	c.Tools.YoutubeDL = strings.TrimSpace(c.Tools.YoutubeDL)
	if c.Tools.YoutubeDL == "" {
		c.Tools.YoutubeDL = defaultYoutubeDL
	}
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpeg
	}
	args := c.Tools.YoutubeDLArgs[:0]
	for _, arg := range c.Tools.YoutubeDLArgs {
		if arg = strings.TrimSpace(arg); arg != "" {
			args = append(args, arg)
		}
	}
	c.Tools.YoutubeDLArgs = args
	c.Tools.PreferredFormat = strings.TrimSpace(c.Tools.PreferredFormat)
	c.Tools.PreferredExt = strings.ToLower(strings.TrimSpace(c.Tools.PreferredExt))
}

func (c *Config) normalizeSource() {
	c.Source.UserAgent = strings.TrimSpace(c.Source.UserAgent)
	if c.Source.UserAgent == "" {
		c.Source.UserAgent = defaultUserAgent
	}
	if c.Source.RequestTimeout <= 0 {
		c.Source.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeAudio() {
	c.Audio.Codec = strings.TrimSpace(c.Audio.Codec)
	if c.Audio.Codec == "" {
		c.Audio.Codec = defaultCodec
	}
	c.Audio.Bitrate = strings.ToLower(strings.TrimSpace(c.Audio.Bitrate))
	if c.Audio.Bitrate == "" {
		c.Audio.Bitrate = defaultBitrate
	}
	c.Audio.Extension = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Audio.Extension), "."))
	if c.Audio.Extension == "" {
		c.Audio.Extension = defaultExtension
	}
	if c.Audio.Workers <= 0 {
		c.Audio.Workers = defaultWorkers
	}
	if c.Audio.ID3v2Version == 0 {
		c.Audio.ID3v2Version = defaultID3v2Version
	}
}

func (c *Config) normalizeTags() {
	c.Tags.Artist = strings.TrimSpace(c.Tags.Artist)
	c.Tags.Album = strings.TrimSpace(c.Tags.Album)
	c.Tags.Genre = strings.TrimSpace(c.Tags.Genre)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
