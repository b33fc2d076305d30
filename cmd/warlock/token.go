package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/siak-warlock/internal/models"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Issue a token for the captcha reply bridge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.auth.IssueToken(models.TokenRequest{Subject: args[0], TTL: tokenTTL})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.AccessToken)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (default JWT_EXPIRATION)")
}
