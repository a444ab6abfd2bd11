package cmd

import (
	"context"
	"os"
	"path/filepath"

	"whisperli/internal/shell"
	"whisperli/logger"

	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Mix sounds interactively",
	Long: `Start an interactive console that drives the mixer. Type help for the
list of commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				logger.Error("shutdown failed", logger.ErrorField(err))
			}
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go a.Run(ctx)

		history := ""
		if dir, err := os.UserCacheDir(); err == nil {
			history = filepath.Join(dir, "whisperli_history")
		}
		return shell.New(a, os.Stdout).Run(ctx, history)
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
