package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/courseloom/backend/internal/artifact"
	"github.com/courseloom/backend/internal/auth"
	"github.com/courseloom/backend/internal/config"
	"github.com/courseloom/backend/internal/dashboard"
	"github.com/courseloom/backend/internal/execution"
	"github.com/courseloom/backend/internal/extract"
	"github.com/courseloom/backend/internal/genai"
	"github.com/courseloom/backend/internal/generation"
	"github.com/courseloom/backend/internal/generator"
	"github.com/courseloom/backend/internal/handlers"
	"github.com/courseloom/backend/internal/images"
	"github.com/courseloom/backend/internal/ledger"
	"github.com/courseloom/backend/internal/repository"
	"github.com/courseloom/backend/internal/router"
	"github.com/courseloom/backend/internal/saga"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL. Ensure Postgres is running, e.g. make dev-up or docker-compose up -d", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL")

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed. If the error is 'connection refused', start PostgreSQL first", "error", err)
		os.Exit(1)
	}
	slog.Info("River migrations applied")

	// Ledger
	ledgerRepo := ledger.NewRepository(pool)
	ledgerSvc := ledger.NewService(ledgerRepo)

	// Generation pipeline
	genClient := genai.NewHTTPClient(cfg.GenAIBaseURL, cfg.GenAIAPIKey, cfg.GenAIModel, 0)
	retryer := genai.NewRetryer(genClient, logger)
	units := generator.NewUnitGenerator(retryer, logger)

	var imageSearch images.Searcher
	if cfg.PexelsAPIKey != "" {
		imageSearch = images.NewPexelsClient(cfg.PexelsAPIKey)
	} else {
		slog.Warn("PEXELS_API_KEY not set, image search disabled")
	}

	coordinator := saga.NewCoordinator(ledgerSvc, units, imageSearch, logger)

	validator, err := artifact.NewValidator(cfg.SchemaDir)
	if err != nil {
		slog.Error("Schema validator init failed", "error", err)
		os.Exit(1)
	}

	// Repositories
	apiKeyRepo := repository.NewAPIKeyRepo(pool)
	accountRepo := repository.NewAccountRepo(pool)
	creditRepo := repository.NewCreditRepo(pool)
	artifactRepo := repository.NewArtifactRepo(pool)

	// Async jobs: insert func is set after the River client is created
	// (breaks the init cycle).
	var insertMu sync.Mutex
	var insertFn generation.EnqueueTxFunc
	enqueueGenerate := func(ctx context.Context, tx pgx.Tx, args execution.GenerateArtifactArgs) error {
		insertMu.Lock()
		fn := insertFn
		insertMu.Unlock()
		if fn == nil {
			panic("river insert not wired")
		}
		return fn(ctx, tx, args)
	}

	generationRepo := generation.NewRepository(pool)
	generationSvc := generation.NewService(generationRepo, artifactRepo, validator, enqueueGenerate, logger)

	workers := river.NewWorkers()
	river.AddWorker(workers, execution.NewGenerateArtifactWorker(generationSvc, coordinator, logger))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.WorkerCount},
		},
		Workers: workers,
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	insertMu.Lock()
	insertFn = func(ctx context.Context, tx pgx.Tx, args execution.GenerateArtifactArgs) error {
		_, err := riverClient.InsertTx(ctx, tx, args, nil)
		return err
	}
	insertMu.Unlock()

	// Auth & dashboard
	authRepo := auth.NewRepository(pool)
	authSvc := auth.NewService(authRepo, cfg.JWTSecret)
	authHandler := auth.NewHandler(authSvc, logger)

	genHandler := generation.NewHandler(generationSvc, authSvc, logger)
	dashHandler := dashboard.NewHandler(authSvc, accountRepo, creditRepo, apiKeyRepo, artifactRepo, ledgerRepo, logger)

	apiV1Router := router.New(authHandler, genHandler, dashHandler)

	generateHandler := &handlers.GenerateHandler{
		Saga:      coordinator,
		Artifacts: artifactRepo,
		Validator: validator,
		Logger:    logger,
	}

	extractHandler := &handlers.ExtractHandler{Extractor: extract.PlainText{}}

	mux := http.NewServeMux()
	mux.Handle("/api/", apiV1Router)
	RegisterV1Routes(mux, apiKeyRepo, creditRepo, generateHandler, extractHandler)
	mux.HandleFunc("GET /v1/pricing", handlers.ListPricing)
	mux.Handle("GET /metrics", promhttp.Handler())

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
	}).Handler(mux)

	// Start River client (processes generation jobs)
	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	serverAddr := "0.0.0.0:" + cfg.Port
	slog.Info("Starting HTTP server", "addr", serverAddr)
	if err := http.ListenAndServe(serverAddr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
