package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/score-predictor/internal/app"
	"github.com/riskibarqy/score-predictor/internal/config"
	"github.com/riskibarqy/score-predictor/internal/observability"
	"github.com/riskibarqy/score-predictor/internal/platform/logging"
	"go.uber.org/zap/zapcore"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	if cfg.AppEnv == config.EnvDev {
		logger = logging.NewConsole(cfg.LogLevel)
	}

	shutdownTracing, otelCore := observability.InitUptrace(cfg, logger)
	var extraCores []zapcore.Core
	if otelCore != nil {
		extraCores = append(extraCores, otelCore)
	}
	drainLogs := func(context.Context) error { return nil }
	if cfg.BetterStackEnabled {
		core, drain, err := observability.NewBetterStackCore(cfg)
		if err != nil {
			logger.Error("build betterstack core", "error", err)
			os.Exit(1)
		}
		extraCores = append(extraCores, core)
		drainLogs = drain
	}
	logger = logger.Tee(extraCores...).With("service", cfg.ServiceName, "version", cfg.ServiceVersion)
	logging.SetDefault(logger)

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("start pyroscope", "error", err)
		os.Exit(1)
	}
	pprofServer := observability.StartPprofServer(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}

	srv, err := container.NewHTTPServer()
	if err != nil {
		logger.Error("build http server", "error", err)
		os.Exit(1)
	}

	if cfg.SyncEnabled && container.Sync != nil {
		go container.Sync.Run(ctx, cfg.SyncInterval)
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr, "results_provider", cfg.ResultsProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if err := container.Close(); err != nil {
		logger.Error("close app", "error", err)
	}
	if err := observability.StopPprofServer(shutdownCtx, pprofServer, logger); err != nil {
		logger.Error("stop pprof server", "error", err)
	}
	if err := stopProfiler(); err != nil {
		logger.Error("stop pyroscope", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("shutdown tracing", "error", err)
	}
	logger.Info("http server stopped")
	if err := drainLogs(shutdownCtx); err != nil {
		logger.Error("drain logs", "error", err)
	}
	_ = logger.Sync()
}
