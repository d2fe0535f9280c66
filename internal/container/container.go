// Package container provides dependency injection.
package container

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ecotrack/backend/internal/advice"
	"github.com/ecotrack/backend/internal/archive"
	"github.com/ecotrack/backend/internal/auth"
	"github.com/ecotrack/backend/internal/config"
	"github.com/ecotrack/backend/internal/events"
	"github.com/ecotrack/backend/internal/genai"
	"github.com/ecotrack/backend/internal/impact"
	"github.com/ecotrack/backend/internal/jobs"
	"github.com/ecotrack/backend/internal/repository"
)

// Container holds all application dependencies.
type Container struct {
	cfg       *config.Config
	logger    *slog.Logger
	db        *sql.DB
	scheduler *jobs.Scheduler

	// Repositories
	userRepo repository.UserRepository
	logRepo  repository.ImpactLogRepository

	// Services
	jwtMgr    *auth.JWTManager
	genai     *genai.Client
	generator *advice.Generator
	publisher events.Publisher
	impactSvc *impact.Service
	archiver  *archive.Archiver
}

// OpenDB opens and pings the PostgreSQL pool described by cfg.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// New creates a new dependency container.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		cfg:    cfg,
		logger: logger,
	}

	db, err := OpenDB(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	c.db = db
	logger.Info("database connected", "host", cfg.Database.Host, "database", cfg.Database.Name)

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(db); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("database migrations applied")
	}

	// Initialize repositories
	c.userRepo = repository.NewPostgresUserRepository(db)
	c.logRepo = repository.NewPostgresImpactLogRepository(db)

	c.jwtMgr, err = auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize JWT manager: %w", err)
	}

	// Generative advice with rule-based fallback
	c.genai = genai.NewClient(cfg.Gemini)
	c.generator = NewGenerator(cfg.Gemini, cfg.Advice, c.genai, logger)
	logger.Info("advice generator initialized", "generative", c.generator.Enabled(), "model", cfg.Gemini.Model)

	c.publisher, err = events.Connect(cfg.Events, logger)
	if err != nil {
		logger.Warn("event publishing unavailable, continuing without it", "error", err)
		c.publisher = events.NopPublisher{}
	}

	c.impactSvc = impact.NewService(c.logRepo, c.generator, c.publisher, logger)

	if cfg.Archive.Enabled {
		storage, err := archive.NewStorage(ctx, cfg.Archive)
		if err != nil {
			c.publisher.Close()
			db.Close()
			return nil, fmt.Errorf("failed to initialize archive storage: %w", err)
		}
		c.archiver = archive.NewArchiver(c.logRepo, storage, logger)
		logger.Info("impact archive enabled", "backend", cfg.Archive.Backend)
	}

	c.scheduler = jobs.NewScheduler(logger)

	return c, nil
}

// NewGenerator builds the advice generator. The generative client is only
// handed over when a credential is configured.
func NewGenerator(gcfg config.GeminiConfig, acfg config.AdviceConfig, client *genai.Client, logger *slog.Logger) *advice.Generator {
	var completer advice.Completer
	if gcfg.Enabled() && client != nil {
		completer = client
	}
	return advice.New(advice.Config{
		ServiceEnabled: gcfg.Enabled(),
		AverageCarbon:  acfg.AverageCarbon,
	}, completer, logger)
}

// Start registers and starts background jobs.
func (c *Container) Start(ctx context.Context) error {
	if err := c.scheduler.Register(jobs.StatsJobName, c.cfg.Jobs.StatsSchedule, jobs.StatsJob(c.logRepo, c.logger)); err != nil {
		return err
	}
	if c.archiver != nil {
		if err := c.scheduler.Register(jobs.ArchiveJobName, c.cfg.Archive.Schedule, jobs.ArchiveJob(c.archiver, nil)); err != nil {
			return err
		}
	}

	c.scheduler.Start()
	return nil
}

// Stop gracefully stops all components.
func (c *Container) Stop(ctx context.Context) error {
	c.logger.Info("stopping container components")

	if c.scheduler != nil {
		c.scheduler.Stop()
	}

	if c.publisher != nil {
		c.publisher.Close()
	}

	if c.db != nil {
		return c.db.Close()
	}

	return nil
}

// Accessors

func (c *Container) Config() *config.Config                              { return c.cfg }
func (c *Container) Logger() *slog.Logger                                { return c.logger }
func (c *Container) DB() *sql.DB                                         { return c.db }
func (c *Container) Scheduler() *jobs.Scheduler                          { return c.scheduler }
func (c *Container) UserRepository() repository.UserRepository           { return c.userRepo }
func (c *Container) ImpactLogRepository() repository.ImpactLogRepository { return c.logRepo }
func (c *Container) JWTManager() *auth.JWTManager                        { return c.jwtMgr }
func (c *Container) GenAI() *genai.Client                                { return c.genai }
func (c *Container) Generator() *advice.Generator                        { return c.generator }
func (c *Container) ImpactService() *impact.Service                      { return c.impactSvc }
