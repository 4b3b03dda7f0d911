package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
)

var bitratePattern = regexp.MustCompile(`^[0-9]+k?$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTools() error {
	if err := ensurePositiveMap(map[string]int{
		"tools.download_timeout": c.Tools.DownloadTimeout,
		"tools.cut_timeout":      c.Tools.CutTimeout,
	}); err != nil {
		return err
	}
	if (c.Tools.PreferredFormat == "") != (c.Tools.PreferredExt == "") {
		return errors.New("tools.preferred_format and tools.preferred_ext must be set together")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if !bitratePattern.MatchString(c.Audio.Bitrate) {
		return fmt.Errorf("audio.bitrate %q must look like 128k", c.Audio.Bitrate)
	}
	if c.Audio.Workers > maxWorkers {
		return fmt.Errorf("audio.workers must be at most %d", maxWorkers)
	}
	if c.Audio.ID3v2Version != 3 && c.Audio.ID3v2Version != 4 {
		return errors.New("audio.id3v2_version must be 3 or 4")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
