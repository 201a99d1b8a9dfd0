package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"dataprobe/adapters/excel"
	"dataprobe/app"
	"dataprobe/internal"
	"dataprobe/internal/api"
	"dataprobe/internal/config"
	"dataprobe/internal/metrics"
	"dataprobe/internal/session"
	"dataprobe/ui"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.Log.Level))
	gin.SetMode(appConfig.Server.GinMode)

	collector := metrics.NewPrometheusCollector()

	loaderConfig := excel.DefaultLoaderConfig()
	loaderConfig.Delimiter = appConfig.Data.CSVDelimiter
	loaderConfig.MaxRows = appConfig.Data.MaxRows
	explorer := app.NewExplorerService(excel.NewDataReader(loaderConfig, logger), collector, logger)

	sessions := session.NewManager(logger, collector)

	options := ui.DefaultOptions()
	options.MaxUploadBytes = appConfig.Data.MaxUploadBytes()
	options.SessionTTL = appConfig.Session.TTL
	server, err := ui.NewServer(explorer, sessions, options, logger, collector)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	var ops *api.OpsServer
	if appConfig.Admin.Enabled {
		ops = api.NewOpsServer(collector, sessions, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start(":" + appConfig.Server.Port)
	})
	if ops != nil {
		g.Go(func() error {
			return ops.Start(":" + appConfig.Admin.Port)
		})
	}
	g.Go(func() error {
		return sessions.RunSweeper(ctx, appConfig.Session.SweepInterval, appConfig.Session.TTL)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if ops != nil {
			if err := ops.Shutdown(shutdownCtx); err != nil {
				logger.Warn("ops server shutdown: %v", err)
			}
		}
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
