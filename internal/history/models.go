package history

import (
	"time"

	"ytalbum/internal/tracklist"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
	StatusDeclined  Status = "declined"
	StatusNoTracks  Status = "no_tracks"
)

// Terminal reports whether the status ends a run.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCanceled, StatusDeclined, StatusNoTracks:
		return true
	default:
		return false
	}
}

// Run is one invocation of the split pipeline.
type Run struct {
	ID         string     `json:"id"`
	SourceURL  string     `json:"source_url"`
	Title      string     `json:"title,omitempty"`
	Status     Status     `json:"status"`
	TrackCount int        `json:"track_count"`
	OutputDir  string     `json:"output_dir,omitempty"`
	MediaBytes int64      `json:"media_bytes"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Duration returns how long the run took, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Track is one file produced by a run.
type Track struct {
	RunID      string           `json:"run_id"`
	Number     int              `json:"number"`
	Title      string           `json:"title"`
	Start      int              `json:"start_seconds"`
	End        tracklist.Offset `json:"end"`
	OutputPath string           `json:"output_path"`
}
