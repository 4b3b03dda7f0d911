package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ytalbum/internal/tracklist"
)

// DefaultListLimit bounds ListRuns when no limit is given.
const DefaultListLimit = 20

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = "id, source_url, title, status, track_count, output_dir, media_bytes, error_message, started_at, finished_at"

// BeginRun inserts run with status running. StartedAt defaults to now.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("run id required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, source_url, title, status, output_dir, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.SourceURL,
		nullableString(run.Title),
		StatusRunning,
		nullableString(run.OutputDir),
		run.StartedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// UpdateRun stores the title and downloaded size once they are known.
func (s *Store) UpdateRun(ctx context.Context, id, title string, mediaBytes int64) error {
	_, err := s.execWithRetry(ctx,
		`UPDATE runs SET title = COALESCE(?, title), media_bytes = ? WHERE id = ?`,
		nullableString(title), mediaBytes, id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// FinishRun records the terminal status of a run.
func (s *Store) FinishRun(ctx context.Context, id string, status Status, trackCount int, runErr error) error {
	if !status.Terminal() {
		return fmt.Errorf("finish run: status %q is not terminal", status)
	}
	var message any
	if runErr != nil {
		message = runErr.Error()
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, track_count = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		status, trackCount, message, time.Now().UTC().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: unknown run %s", id)
	}
	return nil
}

// RecordTrack appends a produced track to its run.
func (s *Store) RecordTrack(ctx context.Context, track Track) error {
	var end any
	if track.End.Valid {
		end = track.End.Seconds
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO tracks (run_id, number, title, start_seconds, end_seconds, output_path) VALUES (?, ?, ?, ?, ?, ?)`,
		track.RunID, track.Number, track.Title, track.Start, end, track.OutputPath,
	)
	if err != nil {
		return fmt.Errorf("record track %d: %w", track.Number, err)
	}
	return nil
}

// GetRun fetches a run by id. A missing run returns nil without error.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// RunTracks returns the tracks of a run in track order.
func (s *Store) RunTracks(ctx context.Context, runID string) ([]Track, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT run_id, number, title, start_seconds, end_seconds, output_path FROM tracks WHERE run_id = ? ORDER BY number`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var (
			track Track
			end   sql.NullInt64
		)
		if err := rows.Scan(&track.RunID, &track.Number, &track.Title, &track.Start, &end, &track.OutputPath); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		if end.Valid {
			track.End = tracklist.At(int(end.Int64))
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

// FindRun resolves a full run id from a unique prefix.
func (s *Store) FindRun(ctx context.Context, prefix string) (*Run, error) {
	if prefix == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+runColumns+` FROM runs WHERE id LIKE ? || '%' ORDER BY started_at DESC LIMIT 2`, prefix)
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", prefix)
	}
}
