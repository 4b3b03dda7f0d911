package config

const (
	defaultConfigPath      = "~/.config/ytalbum/config.toml"
	defaultOutputDir       = "."
	defaultStagingDir      = "~/.local/share/ytalbum/staging"
	defaultLogDir          = "~/.local/share/ytalbum/logs"
	defaultHistoryDB       = "~/.local/share/ytalbum/history.db"
	defaultYoutubeDL       = "youtube-dl"
	defaultFFmpeg          = "ffmpeg"
	defaultDownloadTimeout = 3600
	defaultCutTimeout      = 600
	defaultPreferredFormat = "140"
	defaultPreferredExt    = "m4a"
	defaultUserAgent       = "ytalbum/dev"
	defaultRequestTimeout  = 30
	defaultCodec           = "libmp3lame"
	defaultBitrate         = "128k"
	defaultExtension       = "mp3"
	defaultWorkers         = 2
	defaultID3v2Version    = 3
	defaultStaleAfterHours = 24
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	maxWorkers             = 32
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			HistoryDB:  defaultHistoryDB,
		},
		Tools: Tools{
			YoutubeDL:       defaultYoutubeDL,
			FFmpeg:          defaultFFmpeg,
			DownloadTimeout: defaultDownloadTimeout,
			CutTimeout:      defaultCutTimeout,
			PreferredFormat: defaultPreferredFormat,
			PreferredExt:    defaultPreferredExt,
		},
		Source: Source{
			UseAPI:         true,
			UserAgent:      defaultUserAgent,
			RequestTimeout: defaultRequestTimeout,
		},
		Audio: Audio{
			Codec:        defaultCodec,
			Bitrate:      defaultBitrate,
			Extension:    defaultExtension,
			Workers:      defaultWorkers,
			ID3v2Version: defaultID3v2Version,
		},
		Tags: Tags{
			Enabled:    true,
			WriteTitle: true,
			WriteTotal: true,
		},
		Staging: Staging{
			StaleAfterHours: defaultStaleAfterHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
