package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/saagar210/IncidentManagement-sub000/pkg/config"
	"github.com/saagar210/IncidentManagement-sub000/pkg/database"
	"github.com/saagar210/IncidentManagement-sub000/pkg/handlers"
	"github.com/saagar210/IncidentManagement-sub000/pkg/llm"
	"github.com/saagar210/IncidentManagement-sub000/pkg/logging"
	"github.com/saagar210/IncidentManagement-sub000/pkg/repositories"
	"github.com/saagar210/IncidentManagement-sub000/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Database),
		zap.String("generator_provider", cfg.Generator.Provider),
		zap.Bool("generator_configured", cfg.Generator.IsConfigured()))

	ctx := context.Background()

	// Migrations run over database/sql; the service itself uses pgx pools.
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	incidentRepo := repositories.NewIncidentRepository(db)
	slaRepo := repositories.NewSlaRepository(db)
	quarterRepo := repositories.NewQuarterRepository(db)
	enrichmentRepo := repositories.NewEnrichmentRepository(db)

	// Text generator + availability monitor. An unconfigured generator is
	// not a boot failure: enrichment generation reports unavailable while
	// the incident/quarter core runs normally.
	var generator llm.Generator
	if cfg.Generator.IsConfigured() {
		generator, err = llm.NewGenerator(cfg.Generator.Provider, &llm.Config{
			Endpoint: cfg.Generator.Endpoint,
			Model:    cfg.Generator.Model,
			APIKey:   cfg.Generator.APIKey,
			Timeout:  cfg.Generator.RequestTimeout,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create generator", zap.Error(err))
		}
	} else {
		logger.Warn("No text generator configured; generation job types will report unavailable")
		generator = llm.NewOfflineGenerator()
	}
	monitor := llm.NewHealthMonitor(generator, logger)
	if err := monitor.Start(cfg.Generator.HealthCronSpec); err != nil {
		logger.Fatal("Failed to start generator health monitor", zap.Error(err))
	}
	defer monitor.Stop()

	// Services
	slaService := services.NewSlaService(slaRepo, db, logger)
	incidentService := services.NewIncidentService(incidentRepo, slaService, db, logger)
	quarterService := services.NewQuarterService(quarterRepo, incidentRepo, logger)
	readinessService := services.NewReadinessService(quarterRepo, incidentRepo, logger)
	finalizationService := services.NewFinalizationService(
		quarterRepo, incidentRepo, readinessService, slaService, db,
		cfg.Reporting.NotableIncidentCount, logger)
	enrichmentService := services.NewEnrichmentService(
		enrichmentRepo, incidentRepo, generator, monitor, db,
		cfg.Generator.PromptVersion, logger)

	// HTTP surface
	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewIncidentHandler(incidentService, slaService, logger).RegisterRoutes(mux)
	handlers.NewQuarterHandler(quarterService, readinessService, finalizationService, logger).RegisterRoutes(mux)
	handlers.NewEnrichmentHandler(enrichmentService, logger).RegisterRoutes(mux)

	addr := net.JoinHostPort(cfg.BindAddr, cfg.Port)
	logger.Info("Starting incident-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
