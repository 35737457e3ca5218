package main

import (
	"context"
	"credit_risk/internal/api"
	"credit_risk/internal/config"
	"credit_risk/internal/processor"
	"credit_risk/internal/service"
	"credit_risk/pkg/crypto"
	"credit_risk/pkg/metrics"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	logger.Info("Starting application",
		slog.String("name", cfg.App.Name),
		slog.String("environment", cfg.App.Environment))

	metricsCollector := metrics.NewMetricsCollector(logger)
	signer := crypto.NewSigner(cfg.Signing.Secret, logger)
	engine := processor.NewRiskEngine(cfg.Scoring)
	evalProcessor := processor.NewEvaluationProcessor(engine, logger)
	predictor := setupPredictor(cfg, engine, signer, metricsCollector, logger)
	apiHandler := api.NewAPIHandler(evalProcessor, predictor, metricsCollector, signer, logger)
	metricsServer := metricsCollector.StartMetricsServer(cfg.Metrics.Addr)
	httpServer := startHTTPServer(cfg, apiHandler, logger)
	waitForShutdown(logger, httpServer, metricsServer)
	logger.Info("Application shutdown complete")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.LogLevel()
	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler).With(slog.String("app", cfg.App.Name))
}

// setupPredictor returns nil when no upstream is configured, which keeps
// /api/predict on the local engine.
func setupPredictor(
	cfg *config.Config,
	engine *processor.RiskEngine,
	signer *crypto.Signer,
	metricsCollector *metrics.MetricsCollector,
	logger *slog.Logger,
) api.Predictor {
	if !cfg.RemotePredictor() {
		logger.Info("Using local risk engine for /api/predict")
		return nil
	}

	logger.Info("Using remote predictor for /api/predict",
		slog.String("upstream", cfg.Predictor.UpstreamURL),
		slog.Duration("timeout", cfg.Predictor.Timeout))

	return service.NewPredictorClient(service.PredictorClientConfig{
		BaseURL: cfg.Predictor.UpstreamURL,
		Timeout: cfg.Predictor.Timeout,
		Retries: cfg.Predictor.Retries,
	}, engine, signer, metricsCollector, logger)
}

func startHTTPServer(cfg *config.Config, apiHandler *api.APIHandler, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()

	apiHandler.RegisterRoutes(mux)

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"name": %q, "status": "ok"}`, cfg.App.Name)
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	return server
}

func waitForShutdown(
	logger *slog.Logger,
	httpServer *http.Server,
	metricsServer *http.Server,
) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}

	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("Metrics server shutdown failed", slog.String("error", err.Error()))
	}
}
