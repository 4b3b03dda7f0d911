package staging

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ytalbum/internal/logging"
)

// CleanStaleResult lists what a cleanup removed and what it could not.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with the reason it was not removed.
type CleanupError struct {
	Path  string
	Error error
}

// DirInfo describes one run directory.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// CleanStale removes run directories last modified more than maxAge ago.
// Callers must hold the staging Lock. A non-positive maxAge disables cleanup.
func CleanStale(ctx context.Context, stagingDir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	var result CleanStaleResult
	if maxAge <= 0 {
		return result
	}
	dirs, err := scanRunDirs(stagingDir, false)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: stagingDir, Error: err})
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		if !dir.ModTime.Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(dir.Path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dir.Path, Error: err})
			logging.WarnWithContext(ctx, logger, "failed to remove stale staging directory", "staging_cleanup_failed",
				logging.String("path", dir.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dir.Path)
		if logger != nil {
			logger.InfoContext(ctx, "removed stale staging directory",
				logging.String("path", dir.Path),
				logging.Duration("age", time.Since(dir.ModTime)),
			)
		}
	}
	return result
}

// ListDirectories reports every run directory with its total size.
func ListDirectories(stagingDir string) ([]DirInfo, error) {
	return scanRunDirs(stagingDir, true)
}

// scanRunDirs returns the run directories directly under stagingDir. A blank
// or missing staging directory has none.
func scanRunDirs(stagingDir string, withSize bool) ([]DirInfo, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(stagingDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), runDirPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed since ReadDir.
			continue
		}
		dir := DirInfo{Name: entry.Name(), Path: filepath.Join(stagingDir, entry.Name()), ModTime: info.ModTime()}
		if withSize {
			dir.Size = treeSize(dir.Path)
		}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}

// treeSize sums regular file sizes under root, skipping unreadable entries.
func treeSize(root string) int64 {
	var total int64
	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
