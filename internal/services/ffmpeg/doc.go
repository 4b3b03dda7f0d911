// Package ffmpeg cuts a time range out of downloaded media and transcodes it
// into a standalone audio file.
package ffmpeg
