package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"whisperli/logger"
	"whisperli/server"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mixer with the HTTP and websocket control API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.HTTPAddr = serveAddr
		}
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

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-stop:
				logger.Info("received signal", logger.String("signal", sig.String()))
				cancel()
			case <-ctx.Done():
			}
		}()

		go a.Run(ctx)
		return server.New(a).ListenAndServe(ctx, cfg.HTTPAddr)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default HTTP_ADDR or :8080)")
	rootCmd.AddCommand(serveCmd)
}
