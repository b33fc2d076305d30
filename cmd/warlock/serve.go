package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/noah-isme/siak-warlock/api/swagger"
	"github.com/noah-isme/siak-warlock/internal/handler"
	"github.com/noah-isme/siak-warlock/internal/service"
	"github.com/noah-isme/siak-warlock/pkg/config"
)

var (
	servePort  int
	serveTrack bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Start the HTTP API for snapshot ingestion, course matching and the captcha reply bridge.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		a.startNotifications(ctx)

		if a.cfg.Env == config.EnvProduction {
			gin.SetMode(gin.ReleaseMode)
		}

		checks := make(map[string]handler.Pinger, len(a.checks))
		for name, check := range a.checks {
			checks[name] = check
		}
		router := handler.NewRouter(handler.RouterConfig{
			APIPrefix:      a.cfg.APIPrefix,
			AllowedOrigins: a.cfg.CORS.AllowedOrigins,
			EnableDocs:     a.cfg.Env != config.EnvProduction,
		}, handler.Handlers{
			Health:     handler.NewHealthHandler(a.metrics, checks),
			Snapshots:  handler.NewSnapshotHandler(a.tracker, a.exports, nil),
			Match:      handler.NewMatchHandler(a.criteria, service.NewEnrollmentService(nil, nil, a.metrics, a.logger), a.store, nil),
			Challenges: handler.NewChallengeHandler(a.sessions, nil),
		}, a.auth, a.metrics, a.logger)

		if serveTrack {
			go func() {
				if err := a.tracker.Run(ctx, a.cfg.Tracker.Interval); err != nil && !errors.Is(err, context.Canceled) {
					a.logger.Error("tracker stopped", zap.Error(err))
				}
			}()
		}

		port := a.cfg.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: router, ReadHeaderTimeout: 10 * time.Second}

		errCh := make(chan error, 1)
		go func() {
			a.logger.Sugar().Infow("server starting", "addr", srv.Addr, "env", a.cfg.Env)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to run the server on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveTrack, "track", false, "Also poll the tracker snapshot file in the background")
}
