// Package staging manages the scratch directory downloads land in before they
// are cut. A file lock serializes runs sharing the directory, each run gets its
// own subdirectory, and leftovers of crashed runs are removed once stale.
package staging
