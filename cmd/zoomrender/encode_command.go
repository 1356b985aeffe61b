package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"zoomrender/internal/config"
	"zoomrender/internal/session"
)

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "encode <session.json|dir>",
		Short: "Encode rendered frames into a video with ffmpeg",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
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
			dir := filepath.Dir(sessionPath)
			target := filepath.Join(dir, defaultVideoOut)
			if strings.TrimSpace(output) != "" {
				if target, err = config.ExpandPath(output); err != nil {
					return err
				}
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			// Partially rendered sessions encode what exists so far.
			return encodeFrames(commandCtx(cmd), cmd.OutOrStdout(), cfg, logger,
				filepath.Join(dir, framesDirName), target, sess.RenderedFrames)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Video path (default <session dir>/video.mp4)")
	return cmd
}
