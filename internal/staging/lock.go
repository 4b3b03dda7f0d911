package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// LockFileName is created inside the staging directory.
const LockFileName = "ytalbum.lock"

// runDirPrefix marks directories owned by a single run.
const runDirPrefix = "run-"

// ErrLocked reports that another process holds the staging lock.
var ErrLocked = errors.New("staging directory is in use by another ytalbum run")

// Lock is an exclusive hold on a staging directory.
type Lock struct {
	path string
	lock *flock.Flock
}

// AcquireLock creates stagingDir if needed and takes its lock without
// blocking. ErrLocked is returned when another run holds it.
func AcquireLock(stagingDir string) (*Lock, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, errors.New("staging directory required")
	}
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	path := filepath.Join(stagingDir, LockFileName)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, path)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release drops the lock. It is safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}

// Run is the scratch area owned by one split run.
type Run struct {
	ID  string
	Dir string
}

// NewRun creates a fresh run directory under stagingDir. An empty id gets a
// generated one.
func NewRun(stagingDir, id string) (Run, error) {
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}
	dir := filepath.Join(stagingDir, runDirPrefix+id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Run{}, fmt.Errorf("create run directory: %w", err)
	}
	return Run{ID: id, Dir: dir}, nil
}

// MediaPath returns the download destination for the given container extension.
func (r Run) MediaPath(ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = "media"
	}
	return filepath.Join(r.Dir, "source."+ext)
}

// Remove deletes the run directory and everything in it.
func (r Run) Remove() error {
	if r.Dir == "" {
		return nil
	}
	return os.RemoveAll(r.Dir)
}
