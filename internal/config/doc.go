// Package config loads, normalizes, and validates ytalbum configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// YTALBUM_FFMPEG. The Config type centralizes every knob the split pipeline
// and CLI need: tool binaries, staging and output directories, audio encoding
// settings, default ID3 tags, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
