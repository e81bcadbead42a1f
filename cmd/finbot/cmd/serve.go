package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"finbot/internal/cli"
	apphttp "finbot/internal/http"
	"finbot/internal/log"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the bot over HTTP",
	Long: `Serve the bot as a JSON API.

Endpoints:
- POST /api/events  {"user_id":1,"text":"500 lunch"} or {"user_id":1,"button":"main_menu"}
- GET  /healthz
- GET  /readyz`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		logger.Failure(cmd.Context(), "Failed to start", log.OpStartup, err)
		return err
	}

	srv := apphttp.NewServer(":"+cfg.Port, a.dispatcher,
		apphttp.WithLimiter(a.limiter),
		apphttp.WithReadiness(a.ledger.Ping),
		apphttp.WithLogger(logger),
	)

	ctx, _ := cli.GracefulShutdown(logger, shutdownTimeout, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting finbot server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err = g.Wait(); err != nil {
		logger.Failure(ctx, "Server error", log.OpStartup, err, "port", cfg.Port)
	}
	if cerr := a.Close(); cerr != nil {
		logger.Failure(context.Background(), "Failed to close resources", log.OpShutdown, cerr)
	}
	logger.Info("Server stopped")
	return err
}
