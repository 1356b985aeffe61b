package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const attemptColumns = "run_id, frame, attempt, success, duration_ms, exit_code, iterations, zoom_level, diagnostic, command, recorded_at"

// RecordAttempt stores one renderer invocation.
func (s *Store) RecordAttempt(ctx context.Context, a Attempt) error {
	if a.RecordedAt.IsZero() {
		a.RecordedAt = time.Now()
	}
	success := 0
	if a.Success {
		success = 1
	}
	_, err := s.exec(ctx,
		`INSERT INTO attempts (`+attemptColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.RunID, a.Frame, a.Attempt, success, a.Duration.Milliseconds(), a.ExitCode,
		a.Iterations, a.ZoomLevel, nullString(a.Diagnostic), a.Command, formatTime(a.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// Attempts lists the attempts of a run in execution order.
func (s *Store) Attempts(ctx context.Context, runID string) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var (
			a          Attempt
			success    int
			durationMS int64
			diagnostic sql.NullString
			recorded   sql.NullString
		)
		if err := rows.Scan(&a.RunID, &a.Frame, &a.Attempt, &success, &durationMS, &a.ExitCode,
			&a.Iterations, &a.ZoomLevel, &diagnostic, &a.Command, &recorded); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Success = success != 0
		a.Duration = time.Duration(durationMS) * time.Millisecond
		a.Diagnostic = diagnostic.String
		a.RecordedAt = parseTime(recorded)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Summarize aggregates every attempt recorded for a session.
func (s *Store) Summarize(ctx context.Context, sessionID string) (Summary, error) {
	summary := Summary{SessionID: sessionID, SlowestFrame: -1}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM runs WHERE session_id = ?`, sessionID,
	).Scan(&summary.Runs); err != nil {
		return Summary{}, fmt.Errorf("count runs: %w", err)
	}

	var totalMS sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1),
		       COALESCE(SUM(CASE WHEN a.success = 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN a.success = 1 THEN 1 ELSE 0 END), 0),
		       SUM(CASE WHEN a.success = 1 THEN a.duration_ms END)
		FROM attempts a JOIN runs r ON r.id = a.run_id
		WHERE r.session_id = ?`, sessionID,
	).Scan(&summary.Attempts, &summary.Failures, &summary.FramesRendered, &totalMS); err != nil {
		return Summary{}, fmt.Errorf("aggregate attempts: %w", err)
	}
	summary.TotalRender = time.Duration(totalMS.Int64) * time.Millisecond
	if summary.FramesRendered > 0 {
		summary.MeanFrame = summary.TotalRender / time.Duration(summary.FramesRendered)
	}

	var slowestMS int64
	err := s.db.QueryRowContext(ctx, `
		SELECT a.frame, a.duration_ms
		FROM attempts a JOIN runs r ON r.id = a.run_id
		WHERE r.session_id = ? AND a.success = 1
		ORDER BY a.duration_ms DESC, a.frame ASC
		LIMIT 1`, sessionID,
	).Scan(&summary.SlowestFrame, &slowestMS)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return Summary{}, fmt.Errorf("slowest frame: %w", err)
	default:
		summary.SlowestElapsed = time.Duration(slowestMS) * time.Millisecond
	}
	return summary, nil
}
