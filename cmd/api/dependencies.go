package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	importhandler "github.com/FACorreiaa/question-bank/internal/domain/import/handler"
	importrepo "github.com/FACorreiaa/question-bank/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/question-bank/internal/domain/import/service"
	"github.com/FACorreiaa/question-bank/internal/domain/search"

	"github.com/FACorreiaa/question-bank/pkg/config"
	"github.com/FACorreiaa/question-bank/pkg/cron"
	"github.com/FACorreiaa/question-bank/pkg/db"
	"github.com/FACorreiaa/question-bank/pkg/metrics"
	"github.com/FACorreiaa/question-bank/pkg/storage"
	"github.com/FACorreiaa/question-bank/pkg/tracing"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	QuestionRepo importrepo.QuestionRepository
	LessonRepo   importrepo.LessonRepository

	// Infrastructure
	FileStorage storage.Storage
	SearchIndex *search.Index
	Duplicates  *search.DuplicateDetector
	Metrics     *metrics.Metrics
	Scheduler   *cron.Scheduler

	// Services
	ImportService *importservice.ImportService

	// Handlers
	ImportHandler *importhandler.ImportHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initInfrastructure(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init infrastructure: %w", err)
	}

	deps.initServices()
	deps.initHandlers()

	if err := deps.initScheduler(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init scheduler: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase(ctx context.Context) error {
	database, err := db.New(ctx, d.Config.Database.DSN(), db.Options{
		MaxConns:        int32(d.Config.Database.MaxConns),
		MaxConnLifetime: 5 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if d.Config.Database.Migrate {
		if err := d.DB.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	d.Logger.Info("database connected")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() {
	d.QuestionRepo = importrepo.NewPostgresQuestionRepository(d.DB.Pool)
	d.LessonRepo = importrepo.NewPostgresLessonRepository(d.DB.Pool)

	d.Logger.Info("repositories initialized")
}

// initInfrastructure opens source storage, the search index and the metrics registry
func (d *Dependencies) initInfrastructure(ctx context.Context) error {
	if d.Config.Import.ArchiveSources {
		fileStorage, err := storage.New(ctx, &d.Config.Storage)
		if err != nil {
			return fmt.Errorf("failed to init file storage: %w", err)
		}
		d.FileStorage = fileStorage
	}

	idx, err := search.NewIndex(d.Config.Search.IndexPath)
	if err != nil {
		return fmt.Errorf("failed to open search index: %w", err)
	}
	d.SearchIndex = idx
	d.Duplicates = search.NewDuplicateDetector(nil)

	if d.Config.Observability.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		d.Metrics = metrics.New(reg)
	}

	d.Logger.Info("infrastructure initialized",
		"storage", d.Config.Storage.Type,
		"archive_sources", d.Config.Import.ArchiveSources,
		"index_path", d.Config.Search.IndexPath,
		"metrics", d.Config.Observability.MetricsEnabled,
	)
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() {
	d.ImportService = importservice.NewImportService(d.QuestionRepo, d.LessonRepo, d.Logger).
		WithSearchIndex(d.SearchIndex).
		WithDuplicateDetector(d.Duplicates, d.Config.Import.DuplicateThreshold).
		WithWorkers(d.Config.Import.Workers).
		WithTracer(tracing.Tracer())
	if d.FileStorage != nil {
		d.ImportService.WithStorage(d.FileStorage)
	}
	if d.Metrics != nil {
		d.ImportService.WithMetrics(d.Metrics)
	}

	d.Logger.Info("services initialized")
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() {
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Logger)

	d.Logger.Info("handlers initialized")
}

// initScheduler loads the search index once and schedules the nightly rebuild
func (d *Dependencies) initScheduler(ctx context.Context) error {
	n, err := d.ImportService.Reindex(ctx)
	if err != nil {
		return fmt.Errorf("failed to build search index: %w", err)
	}
	d.Logger.Info("search index loaded", "documents", n)

	d.Scheduler = cron.NewScheduler(d.Config.Search.ReindexCron, d.ImportService, d.Logger)
	return d.Scheduler.Start()
}

// Router builds the HTTP handler serving the API
func (d *Dependencies) Router() http.Handler {
	return importhandler.Routes(d.ImportHandler, importhandler.RouterOptions{
		AllowedOrigins: d.Config.Server.AllowedOrigins,
		RatePerSecond:  d.Config.Server.RateLimitPerSecond,
		Burst:          d.Config.Server.RateLimitBurst,
		Metrics:        d.Metrics,
		Tracer:         tracing.Tracer(),
	})
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		d.Scheduler.Stop()
	}
	if d.SearchIndex != nil {
		if err := d.SearchIndex.Close(); err != nil {
			d.Logger.Warn("failed to close search index", "error", err)
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
