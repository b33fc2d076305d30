package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/siak-warlock/internal/handler"
)

var (
	challengeTimeout time.Duration
	challengePort    int
)

var challengeCmd = &cobra.Command{
	Use:   "challenge <image>",
	Short: "Relay a captcha image to a human and print the answer",
	Long: `Post the captcha image to CAPTCHA_DISCORD_WEBHOOK_URL and wait for a reply delivered to
POST /api/v1/challenges/replies on the embedded listener. Falls back to stdin when the channel is unavailable.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		image, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read captcha image: %w", err)
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		session := a.newSession()
		defer a.sessions.Remove(session.ID)

		router := handler.NewRouter(handler.RouterConfig{APIPrefix: a.cfg.APIPrefix}, handler.Handlers{
			Challenges: handler.NewChallengeHandler(a.sessions, nil),
		}, a.auth, a.metrics, a.logger)
		srv := &http.Server{Addr: fmt.Sprintf(":%d", challengePort), Handler: router, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Warn("reply listener stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		answer, err := session.Relay.Submit(ctx, image, challengeTimeout)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(challengeCmd)
	challengeCmd.Flags().DurationVar(&challengeTimeout, "timeout", 0, "How long to wait for a reply (default CAPTCHA_TIMEOUT)")
	challengeCmd.Flags().IntVarP(&challengePort, "port", "p", 8081, "Port of the embedded reply listener")
}
