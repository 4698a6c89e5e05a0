package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"intent-classifier/internal/audit"
	"intent-classifier/internal/classifier"
	"intent-classifier/internal/classifier/provider"
	"intent-classifier/internal/common/camunda"
	"intent-classifier/internal/common/config"
	"intent-classifier/internal/common/logger"
	"intent-classifier/internal/common/observability"
	"intent-classifier/internal/models"
	"intent-classifier/internal/server"
	"intent-classifier/internal/submission"
	classifyinput "intent-classifier/internal/workers/classification/classify-input"
)

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting intent classifier...",
		zap.String("modelProvider", cfg.Model.Provider),
		zap.String("modelName", cfg.Model.Name),
		zap.String("auditSink", cfg.Audit.Sink),
	)

	obs, err := observability.New("intent-classifier")
	if err != nil {
		zapLog.Warn("otel prometheus exporter unavailable", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Model provider ---
	prov, err := provider.NewOpenAICompatible(provider.Config{
		Provider:       cfg.Model.Provider,
		BaseURL:        cfg.Model.BaseURL,
		APIKey:         cfg.Model.APIKey,
		ResponseFormat: cfg.Model.ResponseFormat,
		Timeout:        time.Duration(cfg.Model.Timeout) * time.Millisecond,
	})
	if err != nil {
		zapLog.Fatal("model provider setup failed", zap.Error(err))
	}

	clf, err := classifier.New(prov, classifier.Config{
		Model:       cfg.Model.Name,
		Temperature: cfg.Model.Temperature,
	})
	if err != nil {
		zapLog.Fatal("classifier setup failed", zap.Error(err))
	}

	// --- Audit sink ---
	sink, err := audit.NewSinkFromConfig(ctx, cfg.Audit)
	if err != nil {
		zapLog.Fatal("audit sink setup failed", zap.Error(err), zap.String("sink", cfg.Audit.Sink))
	}
	auditor := audit.NewAuditor(sink, cfg.Audit.Label, models.ModelInfo{
		Name:        cfg.Model.Name,
		Provider:    cfg.Model.Provider,
		Temperature: cfg.Model.Temperature,
	})
	defer func() {
		if err := auditor.Close(); err != nil {
			zapLog.Error("Error closing audit sink", zap.Error(err))
		}
	}()
	zapLog.Info("Audit sink ready", zap.String("sink", sink.Name()))

	svc := submission.NewService(submission.Dependencies{
		Classifier:    clf,
		Auditor:       auditor,
		Logger:        log,
		Observability: obs,
		ProviderName:  prov.Name(),
		ModelName:     cfg.Model.Name,
	})

	// --- Zeebe worker ---
	var (
		zeebe  *camunda.Client
		worker *classifyinput.Handler
	)
	if cfg.Camunda.Enabled && config.IsWorkerEnabled(cfg, classifyinput.TaskType) {
		zeebe, err = camunda.NewClient(cfg.Camunda)
		if err != nil {
			zapLog.Fatal("zeebe client failed", zap.Error(err))
		}
		worker, err = classifyinput.NewHandler(classifyinput.HandlerOptions{
			AppConfig: cfg,
			Camunda:   zeebe,
			Submitter: svc,
			Logger:    log,
		})
		if err != nil {
			zapLog.Fatal("failed to create classify-input handler", zap.Error(err))
		}
		if err := worker.Register(); err != nil {
			zapLog.Fatal("failed to register classify-input worker", zap.Error(err))
		}
	}

	// --- HTTP server ---
	checks := []server.HealthCheck{{Name: "audit_sink", Check: auditor.Ping}}
	if zeebe != nil {
		checks = append(checks, server.HealthCheck{Name: "zeebe", Check: zeebe.HealthCheck})
	}
	srv, err := server.New(cfg.Server, svc, log, checks...)
	if err != nil {
		zapLog.Fatal("http server setup failed", zap.Error(err))
	}
	go func() {
		if err := srv.Start(); err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Millisecond
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping http server", zap.Error(err))
	}
	if worker != nil {
		worker.Close(shutdownCtx)
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Intent classifier stopped gracefully")
}
