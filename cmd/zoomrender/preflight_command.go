package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"zoomrender/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	var (
		launch    launcherFlags
		noEncoder bool
	)

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check binaries, launcher settings and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := launch.apply(cmd, base)
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), &cfg, preflight.Options{SkipEncoder: noEncoder})
			printPreflight(cmd.OutOrStdout(), results)
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All checks passed")
			return nil
		},
	}

	launch.register(cmd)
	cmd.Flags().BoolVar(&noEncoder, "no-encoder", false, "Skip the ffmpeg check")
	return cmd
}

func printPreflight(w io.Writer, results []preflight.Result) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "ok"
		if !r.Passed {
			status = "FAIL"
		}
		rows = append(rows, []string{r.Name, status, r.Detail})
	}
	printTable(w, []column{{title: "Check"}, {title: "Status"}, {title: "Detail"}}, rows)
}
