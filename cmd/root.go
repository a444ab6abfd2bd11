package cmd

import (
	"fmt"
	"os"

	"whisperli/app"
	"whisperli/config"
	"whisperli/logger"

	"github.com/spf13/cobra"
)

var (
	envFiles []string
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "whisperli",
	Short: "Whisperli layers looping ambient sounds into a mix.",
	Long: `Whisperli mixes ambient sound loops with per-track volume and
playback automation, and saves the mix as named sessions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load(envFiles...)
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		return logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogFile,
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAge,
			Compress:   true,
			Console:    cfg.LogConsole,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, ".env files to load (default .env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
}

// openApp builds the engine for commands that need the mixer or the session
// store. Commands that never play audio pass silent.
func openApp(silent bool) (*app.App, error) {
	c := *cfg
	if silent {
		c.AudioBackend = config.BackendSilent
		c.WatchSounds = false
	}
	return app.New(&c, app.Options{})
}
