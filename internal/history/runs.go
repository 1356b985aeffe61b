package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const runColumns = "id, session_id, session_path, started_at, finished_at, start_frame, end_frame, total_frames, status, error_message"

// StartRun inserts a run in the running state.
func (s *Store) StartRun(ctx context.Context, run Run) error {
	if run.ID == "" || run.SessionID == "" {
		return errors.New("run id and session id are required")
	}
	if run.Status == "" {
		run.Status = RunStatusRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.exec(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SessionID, run.SessionPath, formatTime(run.StartedAt), nullString(formatTime(run.FinishedAt)),
		run.StartFrame, run.EndFrame, run.TotalFrames, string(run.Status), nullString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun records the terminal state of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus, endFrame int, finishedAt time.Time, errMsg string) error {
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, end_frame = ?, finished_at = ?, error_message = ? WHERE id = ?`,
		string(status), endFrame, formatTime(finishedAt), nullString(errMsg), runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update run: run %s not found", runID)
	}
	return nil
}

// Runs lists runs newest first. An empty sessionID lists every session.
func (s *Store) Runs(ctx context.Context, sessionID string, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Run returns one run by ID.
func (s *Store) Run(ctx context.Context, runID string) (Run, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run         Run
		startedRaw  sql.NullString
		finishedRaw sql.NullString
		status      string
		errMsg      sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.SessionID,
		&run.SessionPath,
		&startedRaw,
		&finishedRaw,
		&run.StartFrame,
		&run.EndFrame,
		&run.TotalFrames,
		&status,
		&errMsg,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finishedRaw)
	run.Status = RunStatus(status)
	run.Error = errMsg.String
	return run, nil
}
