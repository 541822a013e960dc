package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nexuscrm/registry/internal/interfaces/rest"
	"github.com/nexuscrm/registry/pkg/auth"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.cfg.Server.Port = port
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides server.port)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sm, closeDB, err := a.services(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	if !a.cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	opts := rest.RouterOptions{Metrics: a.cfg.Metrics.Enabled}
	if a.cfg.Auth.JWTSecret != "" {
		issuer, err := auth.NewTokenIssuer(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}
		opts.Issuer = issuer
	} else {
		a.log.Warn("auth.jwt_secret not set, admin API disabled")
	}

	srv := &http.Server{
		Addr:              "0.0.0.0:" + a.cfg.Server.Port,
		Handler:           rest.NewRouter(sm, a.log, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server started",
			zap.String("addr", srv.Addr),
			zap.String("database", a.cfg.Database.Driver),
			zap.Bool("admin_api", opts.Issuer != nil),
			zap.Bool("metrics", opts.Metrics))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.log.Info("server stopped")
	return nil
}
