package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"framegrab/handlers"
	"framegrab/internal/gatekeeper"
	"framegrab/internal/healthcheck"
	"framegrab/internal/policy"
	"framegrab/internal/reconcile"
	"framegrab/internal/submission"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, gRPC health server and reconciliation sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.ensure()
			if err != nil {
				return err
			}

			backend, closeBackend, err := openBackend(cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeBackend(); err != nil {
					logger.WithField("error", err.Error()).Warn("Closing backend failed")
				}
			}()

			resolver, err := openResolver(cfg, logger)
			if err != nil {
				return err
			}
			mode, err := gatekeeper.ParseMode(cfg.Gating.Mode)
			if err != nil {
				return err
			}

			h := handlers.NewApplicationHandler(
				submission.NewGateway(backend, policy.Default(), logger),
				gatekeeper.New(backend, mode, logger),
				backend,
				logger,
				cfg.DownloadTimeout(),
			)
			app := handlers.NewApp(h, resolver, logger, handlers.AppConfig{CORSOrigins: cfg.HTTP.CORSOrigins})

			sweeper := reconcile.New(backend, reconcile.Config{
				Interval:            cfg.SweepInterval(),
				QueuedThreshold:     cfg.QueuedThreshold(),
				MaxProcessingAge:    cfg.MaxProcessingAge(),
				MaxDispatchAttempts: cfg.Sweeper.MaxDispatchAttempts,
			}, logger)

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			g, gctx := errgroup.WithContext(sigCtx)

			g.Go(func() error {
				logger.WithField("addr", cfg.HTTP.Addr).Info("Starting HTTP API")
				return app.Listen(cfg.HTTP.Addr)
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("Shutting down HTTP API")
				return app.ShutdownWithTimeout(shutdownTimeout)
			})

			if cfg.GRPC.Addr != "" {
				lis, err := net.Listen("tcp", cfg.GRPC.Addr)
				if err != nil {
					return err
				}
				hs := healthcheck.NewServer(backend, 15*time.Second, logger)
				g.Go(func() error { return hs.Serve(gctx, lis) })
			}

			g.Go(func() error { return sweeper.Run(gctx) })

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("framegrab stopped")
			return nil
		},
	}
}
