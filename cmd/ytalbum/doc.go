// Package main hosts the ytalbum CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration and logging once, then hands
// each invocation to the internal packages: split runs the album pipeline,
// tracks previews a description file, history and staging inspect local
// state, and check and config help set the tool up.
//
// Keep this package thin. The pipeline lives in internal/albumsplit; commands
// here only translate flags and render results.
package main
