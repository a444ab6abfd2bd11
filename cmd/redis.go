package cmd

import (
	"context"
	"fmt"
	"time"

	"whisperli/db"
	"whisperli/logger"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Check the Redis session store connection",
	Long:  `Connect to Redis with the REDIS_* settings and round-trip a scratch key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Redis: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := db.ConnectRedis(cfg); err != nil {
			return err
		}
		defer func() {
			if err := db.CloseRedis(); err != nil {
				logger.Warn("failed to close redis", logger.ErrorField(err))
			}
		}()
		fmt.Println("connected")

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		if err := db.TestRedis(ctx); err != nil {
			return err
		}
		fmt.Println("read/write check passed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
