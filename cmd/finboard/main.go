package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finboard/internal/backend"
	"finboard/internal/cache"
	"finboard/internal/cli"
	"finboard/internal/core"
	apphttp "finboard/internal/http"
	"finboard/internal/log"
	"finboard/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	res, err := backend.NewFactory(logger).Create(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	seriesCache := cache.NewLRU[services.Series](cfg.SeriesCacheSize, cfg.SeriesCacheTTL)
	janitor := cache.NewJanitor(logger)
	janitor.Register(seriesCache)
	janitor.Start(cfg.SeriesCacheTTL)

	newService := func(kind core.Kind) *services.TransactionService {
		return services.NewTransactionService(kind, res.Store,
			services.WithLogger(logger),
			services.WithNotifier(res.Notifier),
			services.WithSaver(res.Saver),
			services.WithSeriesCache(seriesCache))
	}
	dash := services.NewDashboard(newService(core.Income), newService(core.Expense), logger.WithComponent(log.ComponentDashboard))

	srv := apphttp.NewServer(":"+cfg.Port, dash, apphttp.Options{Logger: logger})
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		janitor.Stop()
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	// The first load mirrors opening the dashboard; a failure only leaves the lists empty.
	go func() {
		refreshCtx, cancel := context.WithTimeout(ctx, cfg.APITimeout)
		defer cancel()
		if err := dash.Refresh(refreshCtx); err != nil {
			logger.Warn("Initial load failed", log.FieldError, err)
		}
	}()

	logger.Info("Starting finboard server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"export_target", cfg.ExportTarget,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
