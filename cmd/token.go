package cmd

import (
	"fmt"
	"time"

	"whisperli/core/auth"

	"github.com/spf13/cobra"
)

var (
	tokenClient string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the control API",
	Long:  `Sign an HS256 token with JWT_SECRET. Clients send it as "Authorization: Bearer <token>".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, err := auth.GenerateToken(cfg.JWTSecret, tokenClient, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenClient, "client", "c", "cli", "client name written into the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 30*24*time.Hour, "token lifetime, 0 for no expiry")
	rootCmd.AddCommand(tokenCmd)
}
