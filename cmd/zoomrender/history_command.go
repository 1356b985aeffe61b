package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"zoomrender/internal/history"
	"zoomrender/internal/session"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit    int
		attempts string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "history [session-id|session.json|dir]",
		Short: "Show recorded render runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			if attempts != "" {
				return showAttempts(cmd, store, attempts, asJSON)
			}

			sessionID := ""
			if len(args) == 1 {
				sessionID = sessionIDFromArg(args[0])
			}
			runs, err := store.Runs(cmd.Context(), sessionID, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			printRuns(cmd, runs)
			if sessionID == "" {
				return nil
			}
			summary, err := store.Summarize(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Runs: %d  Attempts: %d  Failures: %d  Frames: %s\n",
				summary.Runs, summary.Attempts, summary.Failures, groupInt(summary.FramesRendered))
			if summary.FramesRendered > 0 {
				fmt.Fprintf(out, "Render time: %s  Mean frame: %s\n",
					summary.TotalRender.Round(time.Millisecond), summary.MeanFrame.Round(time.Millisecond))
			}
			if summary.SlowestFrame >= 0 {
				fmt.Fprintf(out, "Slowest frame: %d (%s)\n", summary.SlowestFrame, summary.SlowestElapsed.Round(time.Millisecond))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list")
	cmd.Flags().StringVar(&attempts, "attempts", "", "List every attempt of this run ID")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// sessionIDFromArg accepts a session ID or a path to a session; paths are
// loaded to find the ID.
func sessionIDFromArg(arg string) string {
	arg = strings.TrimSpace(arg)
	if _, err := os.Stat(arg); err != nil {
		return arg
	}
	path, err := resolveSessionPath(arg)
	if err != nil {
		return arg
	}
	sess, err := session.Load(path)
	if err != nil {
		return arg
	}
	return sess.ID
}

func printRuns(cmd *cobra.Command, runs []history.Run) {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		duration := "-"
		if d := run.Duration(); d > 0 {
			duration = d.Round(time.Second).String()
		}
		rows = append(rows, []string{
			run.ID,
			shortID(run.SessionID),
			humanize.Time(run.StartedAt),
			string(run.Status),
			fmt.Sprintf("%d-%d/%d", run.StartFrame, run.EndFrame, run.TotalFrames),
			strconv.Itoa(run.FramesRendered()),
			duration,
			run.Error,
		})
	}
	printTable(cmd.OutOrStdout(), []column{
		{title: "Run"},
		{title: "Session"},
		{title: "Started"},
		{title: "Status"},
		{title: "Frames"},
		{title: "Rendered", numeric: true},
		{title: "Duration", numeric: true},
		{title: "Error"},
	}, rows)
}

func showAttempts(cmd *cobra.Command, store *history.Store, runID string, asJSON bool) error {
	run, ok, err := store.Run(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("run %s not found", runID)
	}
	list, err := store.Attempts(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(cmd, list)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s, started %s)\n", run.ID, run.Status, humanize.Time(run.StartedAt))
	if len(list) == 0 {
		fmt.Fprintln(out, "No attempts recorded")
		return nil
	}
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		result := "ok"
		if !a.Success {
			result = fmt.Sprintf("exit %d", a.ExitCode)
		}
		rows = append(rows, []string{
			strconv.Itoa(a.Frame),
			strconv.Itoa(a.Attempt),
			result,
			a.Duration.Round(time.Millisecond).String(),
			groupInt(a.Iterations),
			strconv.FormatFloat(a.ZoomLevel, 'f', 4, 64),
			firstLine(a.Diagnostic),
		})
	}
	printTable(out, []column{
		{title: "Frame", numeric: true},
		{title: "Attempt", numeric: true},
		{title: "Result"},
		{title: "Duration", numeric: true},
		{title: "Iterations", numeric: true},
		{title: "Zoom level", numeric: true},
		{title: "Diagnostic"},
	}, rows)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
