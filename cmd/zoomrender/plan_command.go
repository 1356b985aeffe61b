package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"zoomrender/internal/dispatch"
	"zoomrender/internal/renderer"
	"zoomrender/internal/session"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var (
		traj         trajectoryFlags
		launch       launcherFlags
		sessionArg   string
		from, to     int
		showCommands bool
	)

	cmd := &cobra.Command{
		Use:   "plan [flags] [-- renderer args...]",
		Short: "Preview the camera path without rendering",
		Long: `Print the zoom, position and iteration count of each frame.

With --session the stored trajectory is used; otherwise the trajectory
flags describe the path exactly as render would.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := launch.apply(cmd, base)
			if err != nil {
				return err
			}

			var (
				sess      *session.Session
				framesDir = framesDirName
			)
			if sessionArg != "" {
				sessionPath, err := resolveSessionPath(sessionArg)
				if err != nil {
					return err
				}
				if sess, err = session.Load(sessionPath); err != nil {
					return err
				}
				framesDir = filepath.Join(filepath.Dir(sessionPath), framesDirName)
			} else {
				extra, err := passthroughArgs(cmd, args)
				if err != nil {
					return err
				}
				params, err := traj.params(cmd, &cfg)
				if err != nil {
					return err
				}
				if sess, err = session.Create(session.Options{Params: params, ExtraProgramArguments: extra}); err != nil {
					return err
				}
			}

			var commander dispatch.Commander
			if showCommands {
				invoker, err := renderer.New(renderer.Config{
					Program: cfg.Renderer.Program,
					Launcher: renderer.Launcher{
						Command:      cfg.Renderer.Launcher,
						HostFile:     cfg.Renderer.HostFile,
						NetInterface: cfg.Renderer.NetInterface,
						Processes:    cfg.Renderer.Processes,
					},
				})
				if err != nil {
					return err
				}
				commander = invoker
			}

			end := to
			if !cmd.Flags().Changed("to") {
				end = sess.TotalFrames
			}
			planned, err := dispatch.Preview(sess, framesDir, commander, from, end)
			if err != nil {
				return err
			}
			printPlan(cmd, planned, showCommands)
			return nil
		},
	}

	traj.register(cmd)
	launch.register(cmd)
	cmd.Flags().StringVar(&sessionArg, "session", "", "Plan an existing session instead of the trajectory flags")
	cmd.Flags().IntVar(&from, "from", 0, "First frame to show")
	cmd.Flags().IntVar(&to, "to", 0, "Stop before this frame (default: all frames)")
	cmd.Flags().BoolVar(&showCommands, "commands", false, "Print the renderer command for each frame")
	return cmd
}

func printPlan(cmd *cobra.Command, planned []dispatch.PlannedFrame, showCommands bool) {
	out := cmd.OutOrStdout()
	if len(planned) == 0 {
		fmt.Fprintln(out, "No frames in range")
		return
	}
	rows := make([][]string, 0, len(planned))
	for _, p := range planned {
		rows = append(rows, []string{
			strconv.Itoa(p.Frame),
			shortDecimal(p.Point.Zoom),
			shortDecimal(p.Point.ZoomLevel),
			shortDecimal(p.Point.X),
			shortDecimal(p.Point.Y),
			groupInt(p.Point.Iterations),
		})
	}
	printTable(out, []column{
		{title: "Frame", numeric: true},
		{title: "Zoom", numeric: true},
		{title: "Zoom level", numeric: true},
		{title: "X", numeric: true},
		{title: "Y", numeric: true},
		{title: "Iterations", numeric: true},
	}, rows)

	if !showCommands {
		return
	}
	fmt.Fprintln(out)
	for _, p := range planned {
		fmt.Fprintf(out, "%d: %s\n", p.Frame, strings.Join(p.Command, " "))
	}
}
