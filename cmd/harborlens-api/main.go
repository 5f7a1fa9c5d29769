package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/harborlens/harborlens/internal/api"
	"github.com/harborlens/harborlens/internal/auth"
	"github.com/harborlens/harborlens/internal/config"
	"github.com/harborlens/harborlens/internal/history"
	historypostgres "github.com/harborlens/harborlens/internal/history/postgres"
	"github.com/harborlens/harborlens/internal/llm"
	"github.com/harborlens/harborlens/internal/observability"
	"github.com/harborlens/harborlens/internal/pipeline"
	"github.com/harborlens/harborlens/internal/storage"
	s3store "github.com/harborlens/harborlens/internal/storage/s3"
	"github.com/harborlens/harborlens/internal/warehouse"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("harborlens-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	store, err := warehouse.Open(context.Background(), warehouse.Config{
		Path:            cfg.Warehouse.Path,
		MaxOpenConns:    cfg.Warehouse.MaxOpenConns,
		MaxIdleConns:    cfg.Warehouse.MaxIdleConns,
		ConnMaxIdleTime: cfg.Warehouse.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Warehouse.ConnMaxLifetime,
		SchemaCacheTTL:  cfg.Warehouse.SchemaCacheTTL,
	})
	if err != nil {
		logger.Error("failed to open warehouse", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	var recorder history.Recorder
	if cfg.History.DSN != "" {
		historyDB, err := historypostgres.Open(context.Background(), historypostgres.DBConfig{
			DSN:             cfg.History.DSN,
			MaxOpenConns:    cfg.History.MaxOpenConns,
			MaxIdleConns:    cfg.History.MaxIdleConns,
			ConnMaxIdleTime: cfg.History.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.History.ConnMaxLifetime,
		})
		if err != nil {
			logger.Error("failed to open history db", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = historyDB.Close() }()

		repo := historypostgres.NewRepository(historyDB)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			logger.Error("failed to ensure history schema", slog.Any("error", err))
			os.Exit(1)
		}
		recorder = repo
	}

	var exports storage.ObjectStore
	if cfg.ObjectStore.Endpoint != "" {
		exports, err = s3store.New(context.Background(), s3store.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
	}

	var processor api.QuestionProcessor
	if cfg.AI.APIKey != "" {
		model, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL:     cfg.AI.BaseURL,
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.Timeout,
		})
		if err != nil {
			logger.Error("failed to initialize model client", slog.Any("error", err))
			os.Exit(1)
		}

		prompt, err := pipeline.LoadPromptTemplate(cfg.AI.PromptPath)
		if err != nil {
			logger.Error("failed to load prompt template", slog.Any("error", err))
			os.Exit(1)
		}

		processor = &pipeline.Pipeline{
			Schema:  store,
			Model:   model,
			Store:   store,
			Prompt:  prompt,
			History: recorder,
			TopK:    cfg.AI.TopK,
			Logger:  logger,
		}
	}

	deps := api.Dependencies{
		Logger:       logger,
		Pipeline:     processor,
		Schema:       store,
		History:      recorder,
		Exports:      exports,
		ExportPrefix: cfg.History.ExportPrefix,
		Readiness: api.CombineReadinessChecks(
			store.HealthCheck,
			api.CheckModelConfig(cfg),
		),
		DependencyTimeout: time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
