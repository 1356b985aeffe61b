package config

const (
	defaultConfigPath         = "~/.config/zoomrender/config.toml"
	defaultOutputDir          = "."
	defaultLogDir             = "~/.local/share/zoomrender/logs"
	defaultHistoryDB          = "~/.local/share/zoomrender/history.db"
	defaultProgram            = "./mandelbrot"
	defaultLauncher           = "mpirun"
	defaultHostFile           = "hostfile"
	defaultProcesses          = 16
	defaultNetInterface       = "eth0"
	defaultRetryLimit         = 5
	defaultDiagnosticLimitKiB = 64
	defaultIterationsBase     = 512
	defaultIterationsScale    = 64
	defaultIterationFormula   = "log2"
	defaultSmoothingFrames    = 0
	defaultFFmpeg             = "ffmpeg"
	defaultFramerate          = 60
	defaultCodec              = "libx264"
	defaultPreset             = "veryslow"
	defaultCRF                = 18
	defaultPixFmt             = "yuv420p"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			HistoryDB: defaultHistoryDB,
		},
		Renderer: Renderer{
			Program:            defaultProgram,
			Launcher:           defaultLauncher,
			HostFile:           defaultHostFile,
			Processes:          defaultProcesses,
			NetInterface:       defaultNetInterface,
			RetryLimit:         defaultRetryLimit,
			DiagnosticLimitKiB: defaultDiagnosticLimitKiB,
		},
		Trajectory: Trajectory{
			IterationsBase:   defaultIterationsBase,
			IterationsScale:  defaultIterationsScale,
			IterationFormula: defaultIterationFormula,
			SmoothingFrames:  defaultSmoothingFrames,
		},
		Encoder: Encoder{
			FFmpeg:    defaultFFmpeg,
			Framerate: defaultFramerate,
			Codec:     defaultCodec,
			Preset:    defaultPreset,
			CRF:       defaultCRF,
			PixFmt:    defaultPixFmt,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
