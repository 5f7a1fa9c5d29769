package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/harborlens/harborlens/internal/config"
	"github.com/harborlens/harborlens/internal/ingest"
	"github.com/harborlens/harborlens/internal/migrations"
	"github.com/harborlens/harborlens/internal/observability"
	s3store "github.com/harborlens/harborlens/internal/storage/s3"
	"github.com/harborlens/harborlens/internal/warehouse"
)

func main() {
	schema := flag.Bool("schema", false, "apply warehouse schema migrations before loading")
	down := flag.Int("down", 0, "roll back this many migrations and exit")
	load := flag.Bool("load", false, "load the source CSV files into the warehouse")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("harborlens-ingest")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	if !*schema && !*load && *down == 0 {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -schema, -load or -down")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	store, err := warehouse.Open(ctx, warehouse.Config{
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

	runner := migrations.NewRunner()
	if *down > 0 {
		rolledBack, err := runner.Down(ctx, store.DB(), *down)
		if err != nil {
			logger.Error("migration down failed", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("rolled back migrations", slog.Int("count", rolledBack))
		return
	}

	if *schema {
		applied, err := runner.Up(ctx, store.DB(), 0)
		if err != nil {
			logger.Error("migration up failed", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("applied migrations", slog.Int("count", applied))
	}

	if !*load {
		return
	}

	source, err := buildSource(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize csv source", slog.Any("error", err))
		os.Exit(1)
	}

	loader := ingest.NewLoader(store.DB(), source, logger)
	if err := loader.LoadAll(ctx); err != nil {
		logger.Error("ingest failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("ingest complete")
}

func buildSource(ctx context.Context, cfg config.Config) (ingest.Source, error) {
	if !cfg.Ingest.FromObjectStore {
		return ingest.DirSource{Dir: cfg.Ingest.SourceDir}, nil
	}
	objectStore, err := s3store.New(ctx, s3store.Config{
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
		return nil, fmt.Errorf("initialize object store: %w", err)
	}
	return ingest.ObjectSource{Store: objectStore, Prefix: cfg.Ingest.CSVPrefix}, nil
}
