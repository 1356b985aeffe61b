package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"zoomrender/internal/config"
	"zoomrender/internal/dispatch"
	"zoomrender/internal/encoder"
	"zoomrender/internal/history"
	"zoomrender/internal/logging"
	"zoomrender/internal/metrics"
	"zoomrender/internal/preflight"
	"zoomrender/internal/procexec"
	"zoomrender/internal/progresslog"
	"zoomrender/internal/renderer"
	"zoomrender/internal/session"
	"zoomrender/internal/statusserver"
)

const (
	framesDirName   = "frames"
	videoDirLayout  = "2006-01-02_15-04-05"
	defaultVideoOut = "video.mp4"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		traj      trajectoryFlags
		launch    launcherFlags
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "render [flags] [-- renderer args...]",
		Short: "Start a new zoom render",
		Long: `Create a session in a fresh video_<timestamp> directory and render every frame.

Arguments after -- are appended to every renderer invocation and stored in
the session so resume repeats them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := launch.apply(cmd, base)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output-dir") {
				expanded, err := config.ExpandPath(outputDir)
				if err != nil {
					return fmt.Errorf("resolve output dir: %w", err)
				}
				cfg.Paths.OutputDir = expanded
			}
			extra, err := passthroughArgs(cmd, args)
			if err != nil {
				return err
			}
			params, err := traj.params(cmd, &cfg)
			if err != nil {
				return err
			}
			sess, err := session.Create(session.Options{
				Params:                params,
				ExtraProgramArguments: extra,
				StartFrame:            traj.startFrame,
			})
			if err != nil {
				return err
			}

			if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			if !launch.noPreflight {
				if err := checkPreflight(cmd, &cfg, cfg.Paths.OutputDir, launch.encode); err != nil {
					return err
				}
			}

			dir := filepath.Join(cfg.Paths.OutputDir, "video_"+sess.CreatedAt.Local().Format(videoDirLayout))
			if err := os.Mkdir(dir, 0o755); err != nil {
				return fmt.Errorf("create session dir: %w", err)
			}
			sessionPath := filepath.Join(dir, session.FileName)
			if err := sess.Save(sessionPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session created at %s\n", sessionPath)

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return runSession(cmd, &cfg, logger, sess, sessionPath, launch.encode)
		},
	}

	traj.register(cmd)
	launch.register(cmd)
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory that receives video_<timestamp> (default from config)")
	return cmd
}

func newResumeCommand(ctx *commandContext) *cobra.Command {
	var launch launcherFlags

	cmd := &cobra.Command{
		Use:   "resume <session.json|dir>",
		Short: "Continue an interrupted render",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := launch.apply(cmd, base)
			if err != nil {
				return err
			}
			sessionPath, err := resolveSessionPath(args[0])
			if err != nil {
				return err
			}
			sess, err := session.Load(sessionPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded session located at %s\n", sessionPath)

			if !launch.noPreflight {
				if err := checkPreflight(cmd, &cfg, filepath.Dir(sessionPath), launch.encode); err != nil {
					return err
				}
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return runSession(cmd, &cfg, logger, sess, sessionPath, launch.encode)
		},
	}

	launch.register(cmd)
	return cmd
}

// resolveSessionPath accepts a session file or the directory holding one.
func resolveSessionPath(arg string) (string, error) {
	path, err := config.ExpandPath(strings.TrimSpace(arg))
	if err != nil {
		return "", fmt.Errorf("resolve session path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("session %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, session.FileName)
	}
	return filepath.Abs(path)
}

func checkPreflight(cmd *cobra.Command, cfg *config.Config, outputDir string, encode bool) error {
	results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{OutputDir: outputDir, SkipEncoder: !encode})
	failed := preflight.Failed(results)
	if len(failed) == 0 {
		return nil
	}
	printPreflight(cmd.ErrOrStderr(), failed)
	return fmt.Errorf("preflight failed: %d check(s) did not pass (use --no-preflight to skip)", len(failed))
}

// runSession renders the remaining frames of sess and optionally encodes the
// result. The caller has already persisted sess at sessionPath.
func runSession(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, sess *session.Session, sessionPath string, encode bool) error {
	lock, err := session.AcquireLock(sessionPath)
	if err != nil {
		return err
	}
	defer lock.Release()

	dir := filepath.Dir(sessionPath)
	framesDir := filepath.Join(dir, framesDirName)
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return fmt.Errorf("create frames dir: %w", err)
	}

	progress, err := progresslog.Open(filepath.Join(dir, progresslog.FileName))
	if err != nil {
		return err
	}
	defer progress.Close()

	rendererLogger := logging.NewComponentLogger(logger, "renderer")
	invoker, err := renderer.New(
		renderer.Config{
			Program: cfg.Renderer.Program,
			Launcher: renderer.Launcher{
				Command:      cfg.Renderer.Launcher,
				HostFile:     cfg.Renderer.HostFile,
				NetInterface: cfg.Renderer.NetInterface,
				Processes:    cfg.Renderer.Processes,
			},
		},
		renderer.WithExecutor(procexec.CommandExecutor{DiagnosticLimit: cfg.DiagnosticLimitBytes()}),
		renderer.WithStdout(func(line string) {
			rendererLogger.Debug("renderer output", logging.String("line", line))
		}),
	)
	if err != nil {
		return err
	}

	var recorder dispatch.Recorder
	if store, err := history.Open(cfg.Paths.HistoryDB); err != nil {
		logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.history_db"),
			logging.String(logging.FieldImpact, "render attempts will not be recorded"),
		)
	} else {
		defer store.Close()
		recorder = store
	}

	m := metrics.New()
	reporter := newProgressReporter(cmd.OutOrStdout(), sess.RenderedFrames, sess.TotalFrames)

	d, err := dispatch.New(dispatch.Options{
		Session:     sess,
		SessionPath: sessionPath,
		FramesDir:   framesDir,
		Invoker:     invoker,
		Log:         progress,
		Recorder:    recorder,
		Metrics:     m,
		RetryLimit:  cfg.Renderer.RetryLimit,
		Logger:      logger,
		Reporter:    reporter,
	})
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(commandCtx(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if srv := statusserver.New(cfg.Server.Listen, d, m, logger); srv != nil {
		if err := srv.Start(runCtx); err != nil {
			return err
		}
		defer srv.Stop()
		fmt.Fprintf(cmd.OutOrStdout(), "Status available at http://%s/status\n", srv.Addr())
	}

	started := time.Now()
	runErr := d.Run(runCtx)
	reporter.Finish()
	fmt.Fprintf(cmd.OutOrStdout(), "Rendering took %s\n", time.Since(started).Round(time.Millisecond))
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Interrupted after %d of %d frames; resume with: zoomrender resume %s\n",
				sess.RenderedFrames, sess.TotalFrames, sessionPath)
		}
		return runErr
	}

	if !encode {
		return nil
	}
	return encodeFrames(runCtx, cmd.OutOrStdout(), cfg, logger, framesDir, filepath.Join(dir, defaultVideoOut), sess.TotalFrames)
}

func encodeFrames(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger, framesDir, output string, totalFrames int) error {
	bar := newProgressReporter(out, 0, totalFrames)
	enc, err := encoder.New(
		encoder.Settings{
			FFmpeg:    cfg.Encoder.FFmpeg,
			Framerate: cfg.Encoder.Framerate,
			Codec:     cfg.Encoder.Codec,
			Preset:    cfg.Encoder.Preset,
			CRF:       cfg.Encoder.CRF,
			PixFmt:    cfg.Encoder.PixFmt,
		},
		encoder.WithExecutor(procexec.CommandExecutor{DiagnosticLimit: cfg.DiagnosticLimitBytes()}),
		encoder.WithProgress(func(encoded int) {
			if bar.bar != nil {
				_ = bar.bar.Set(encoded)
			}
		}),
	)
	if err != nil {
		return err
	}
	job := encoder.Job{FramesDir: framesDir, OutputPath: output, TotalFrames: totalFrames}
	logger.Info("encoding video",
		logging.String(logging.FieldEventType, "encode_start"),
		logging.String("output", output),
		logging.Any("command", enc.Command(job)),
	)
	started := time.Now()
	if err := enc.Encode(ctx, job); err != nil {
		return err
	}
	bar.Finish()
	fmt.Fprintf(out, "Video written to %s (encoding took %s)\n", output, time.Since(started).Round(time.Millisecond))
	return nil
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
