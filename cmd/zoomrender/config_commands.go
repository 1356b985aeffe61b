package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"zoomrender/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		targetPath string
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			var err error
			if target == "" {
				target, err = config.DefaultConfigPath()
			} else {
				target, err = config.ExpandPath(target)
			}
			if err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}

			if !overwrite {
				_, statErr := os.Stat(target)
				switch {
				case statErr == nil:
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				case !errors.Is(statErr, fs.ErrNotExist):
					return fmt.Errorf("check config path: %w", statErr)
				}
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set renderer.program (or export ZOOMRENDER_PROGRAM) before rendering.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing file")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and report problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			path := ctx.configPath
			if path == "" {
				path = "(defaults)"
			}
			fmt.Fprintf(out, "Config path: %s\n", path)
			fmt.Fprintf(out, "Renderer:    %s\n", cfg.Renderer.Program)
			if cfg.Renderer.Launcher != "" {
				fmt.Fprintf(out, "Launcher:    %s -np %d\n", cfg.Renderer.Launcher, cfg.Renderer.Processes)
			} else {
				fmt.Fprintln(out, "Launcher:    none (direct invocation)")
			}
			fmt.Fprintf(out, "Output dir:  %s\n", cfg.Paths.OutputDir)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
