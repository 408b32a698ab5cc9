package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ednaapi/internal/backend"
	"ednaapi/internal/config"
	"ednaapi/internal/database"
	"ednaapi/internal/database/migration"
	handlers "ednaapi/internal/http/handler"
	"ednaapi/internal/http/middleware"
	"ednaapi/internal/otel"
	"ednaapi/internal/repository/postgres"
	"ednaapi/internal/service"
	"ednaapi/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.Local
	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Build the prediction chain in the configured priority order; a dummy
	// terminal backend is always appended so analysis never hard-fails.
	var chainBackends []backend.Backend
	for _, name := range cfg.Model.Backends {
		switch name {
		case "custom":
			chainBackends = append(chainBackends, backend.NewLocal(cfg.Model.CustomModelDir))
		case "remote":
			chainBackends = append(chainBackends, backend.NewRemote(cfg.Model.RemoteURL, cfg.Model.RemoteToken))
		case "onnx":
			chainBackends = append(chainBackends, backend.NewONNX(cfg.Model.OnnxModelPath, cfg.Model.OnnxLabelsPath))
		default:
			log.Printf("unknown backend %q in MODEL_BACKENDS, skipping", name)
		}
	}
	chain := backend.NewChain(chainBackends...)

	predictor, err := backend.NewCachingPredictor(chain, cfg.Model.CacheSize)
	if err != nil {
		log.Fatalf("failed to initialize prediction cache: %v", err)
	}

	// Initialize repositories and service
	analysisRepo := postgres.NewAnalysisPostgres(db)
	commentRepo := postgres.NewCommentPostgres(db)
	proposalRepo := postgres.NewProposalPostgres(db)
	svc := service.NewAnalysisService(predictor, objStore, analysisRepo, commentRepo, proposalRepo)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMiddleware, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to initialize metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, chain, svc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
