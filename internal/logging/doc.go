// Package logging assembles structured slog loggers for ytalbum.
//
// It owns the console and JSON handlers, resolves levels and output files from
// configuration, and appends the run, stage and track fields carried by a
// context so pipeline code only needs the *Context logging methods.
package logging
