// Package services defines shared utilities consumed by the split pipeline and
// its external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and track numbers for
//     logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent exit codes.
//   - Thin abstractions (see the command subpackage) that make execution of
//     youtube-dl and ffmpeg testable.
package services
