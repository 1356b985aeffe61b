package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"zoomrender/internal/progresslog"
	"zoomrender/internal/session"
)

type sessionStatus struct {
	SessionID      string    `json:"session_id"`
	Path           string    `json:"path"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	RenderedFrames int       `json:"rendered_frames"`
	TotalFrames    int       `json:"total_frames"`
	Percent        float64   `json:"percent"`
	Complete       bool      `json:"complete"`
	Running        bool      `json:"running"`
	ZoomStart      string    `json:"zoom_start"`
	ZoomEnd        string    `json:"zoom_end"`
	Formula        string    `json:"iteration_formula"`
	AvgFrameSecs   float64   `json:"avg_frame_seconds,omitempty"`
	ETASeconds     float64   `json:"eta_seconds,omitempty"`
	ExtraArguments []string  `json:"extra_program_arguments,omitempty"`
	Recent         []logRow  `json:"recent_frames,omitempty"`
}

type logRow struct {
	Frame     int     `json:"frame"`
	ZoomLevel float64 `json:"zoom_level"`
	Seconds   float64 `json:"seconds"`
	Command   string  `json:"command"`
}

func newStatusCommand(_ *commandContext) *cobra.Command {
	var (
		asJSON bool
		last   int
	)

	cmd := &cobra.Command{
		Use:   "status <session.json|dir>",
		Short: "Show progress of a render session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionPath, err := resolveSessionPath(args[0])
			if err != nil {
				return err
			}
			status, err := loadStatus(sessionPath, last)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, status)
			}
			printStatus(cmd, status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().IntVarP(&last, "last", "n", 10, "Number of recent frames to list")
	return cmd
}

func loadStatus(sessionPath string, last int) (sessionStatus, error) {
	sess, err := session.Load(sessionPath)
	if err != nil {
		return sessionStatus{}, err
	}
	entries, err := progresslog.Read(filepath.Join(filepath.Dir(sessionPath), progresslog.FileName))
	if err != nil {
		return sessionStatus{}, err
	}

	status := sessionStatus{
		SessionID:      sess.ID,
		Path:           sessionPath,
		CreatedAt:      sess.CreatedAt,
		RenderedFrames: sess.RenderedFrames,
		TotalFrames:    sess.TotalFrames,
		Percent:        sess.Progress() * 100,
		Complete:       sess.Complete(),
		ZoomStart:      shortDecimal(sess.ZoomStart),
		ZoomEnd:        shortDecimal(sess.ZoomEnd),
		Formula:        string(sess.IterationFormula),
		ExtraArguments: sess.ExtraProgramArguments,
	}
	if info, err := os.Stat(sessionPath); err == nil {
		status.UpdatedAt = info.ModTime()
	}

	lock, err := session.AcquireLock(sessionPath)
	switch {
	case errors.Is(err, session.ErrSessionLocked):
		status.Running = true
	case err == nil:
		lock.Release()
	}

	if len(entries) > 0 {
		var total time.Duration
		for _, e := range entries {
			total += e.Elapsed
		}
		avg := total / time.Duration(len(entries))
		status.AvgFrameSecs = avg.Seconds()
		status.ETASeconds = (avg * time.Duration(sess.Remaining())).Seconds()
	}
	if last > 0 && len(entries) > last {
		entries = entries[len(entries)-last:]
	}
	for _, e := range entries {
		status.Recent = append(status.Recent, logRow{
			Frame:     e.Frame,
			ZoomLevel: e.ZoomLevel,
			Seconds:   e.Elapsed.Seconds(),
			Command:   e.Command,
		})
	}
	return status, nil
}

func printStatus(cmd *cobra.Command, s sessionStatus) {
	out := cmd.OutOrStdout()
	state := "incomplete"
	switch {
	case s.Complete:
		state = "complete"
	case s.Running:
		state = "rendering"
	}
	fmt.Fprintf(out, "Session:  %s\n", s.SessionID)
	fmt.Fprintf(out, "Path:     %s\n", s.Path)
	fmt.Fprintf(out, "State:    %s (locked: %s)\n", state, yesNo(s.Running))
	fmt.Fprintf(out, "Progress: %s / %s frames (%.2f%%)\n", groupInt(s.RenderedFrames), groupInt(s.TotalFrames), s.Percent)
	fmt.Fprintf(out, "Zoom:     %s -> %s (%s)\n", s.ZoomStart, s.ZoomEnd, s.Formula)
	if !s.CreatedAt.IsZero() {
		fmt.Fprintf(out, "Created:  %s\n", humanize.Time(s.CreatedAt))
	}
	if !s.UpdatedAt.IsZero() {
		fmt.Fprintf(out, "Updated:  %s\n", humanize.Time(s.UpdatedAt))
	}
	if s.AvgFrameSecs > 0 {
		fmt.Fprintf(out, "Average:  %.3f sec/frame\n", s.AvgFrameSecs)
		if !s.Complete {
			eta := time.Duration(s.ETASeconds * float64(time.Second)).Round(time.Second)
			fmt.Fprintf(out, "ETA:      %s (finishing %s)\n", eta, humanize.Time(time.Now().Add(eta)))
		}
	}
	if len(s.Recent) == 0 {
		return
	}
	fmt.Fprintln(out)
	rows := make([][]string, 0, len(s.Recent))
	for _, r := range s.Recent {
		rows = append(rows, []string{
			strconv.Itoa(r.Frame),
			strconv.FormatFloat(r.ZoomLevel, 'f', 4, 64),
			strconv.FormatFloat(r.Seconds, 'f', 3, 64),
		})
	}
	printTable(out, []column{{title: "Frame", numeric: true}, {title: "Zoom level", numeric: true}, {title: "Seconds", numeric: true}}, rows)
}
