// Package app wires configuration, storage, cache, and HTTP surfaces together
package app

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"financeapi.app/api"
	"financeapi.app/cache"
	"financeapi.app/config"
	"financeapi.app/database"
	"financeapi.app/metrics"
	"financeapi.app/repository"
	"financeapi.app/scheduler"
	"financeapi.app/service"
)

// Application represents the main application with all its dependencies
type Application struct {
	config    *config.Config
	db        *gorm.DB
	store     *cache.Store
	server    *api.Server
	scheduler *scheduler.Scheduler
}

// NewApplication creates and initializes a new application instance
func NewApplication() (*Application, error) {
	app := &Application{}

	if err := app.loadConfiguration(); err != nil {
		return nil, err
	}

	if err := app.initializeDatabase(); err != nil {
		return nil, err
	}

	if err := app.initializeServices(); err != nil {
		return nil, err
	}

	return app, nil
}

func (app *Application) loadConfiguration() error {
	slog.Info("Loading configuration...")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return fmt.Errorf("load application configuration: %w", err)
	}

	app.config = cfg
	slog.Info("Configuration loaded successfully")
	return nil
}

func (app *Application) initializeDatabase() error {
	slog.Info("Initializing database...")

	db, err := database.InitDB(app.config.Database)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		return fmt.Errorf("initialize database connection: %w", err)
	}

	if err := database.RunMigrations(db); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		return fmt.Errorf("run database migrations: %w", err)
	}

	if err := database.SeedDefaultCategories(db); err != nil {
		slog.Error("Failed to seed default categories", "error", err)
		return fmt.Errorf("seed default categories: %w", err)
	}

	app.db = db
	slog.Info("Database initialized successfully")
	return nil
}

func (app *Application) initializeServices() error {
	slog.Info("Initializing services...")

	collector := metrics.NewCacheCollector("redis")
	app.store = cache.NewStore(app.storeConfig(), collector)
	cacheService := cache.NewService(app.store)
	invalidator := cache.NewInvalidator(app.store, app.config.Cache.ListPages)

	userRepo := repository.NewUserRepository(app.db)
	sessionRepo := repository.NewSessionRepository(app.db)
	categoryRepo := repository.NewCategoryRepository(app.db)
	transactionRepo := repository.NewTransactionRepository(app.db)

	transactionService := service.NewTransactionService(
		transactionRepo,
		categoryRepo,
		cacheService,
		invalidator,
		app.config.Cache.ListPages,
	)
	categoryService := service.NewCategoryService(categoryRepo, cacheService, invalidator)
	analyticsService := service.NewAnalyticsService(transactionRepo, cacheService)

	warmSource := service.NewCacheWarmSource(analyticsService, categoryService, transactionService)
	warmer := cache.NewWarmer(cacheService, warmSource, app.config.Cache.WarmConcurrency)

	authService := service.NewAuthService(userRepo, sessionRepo, warmer, app.config)
	cacheAdminService := service.NewCacheAdminService(app.store, collector, invalidator, warmer)

	server, err := api.NewServer(api.ServerOptions{
		DB:                 app.db,
		Config:             app.config,
		AuthService:        authService,
		TransactionService: transactionService,
		CategoryService:    categoryService,
		AnalyticsService:   analyticsService,
		CacheAdminService:  cacheAdminService,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	app.server = server
	app.scheduler = scheduler.NewScheduler(app.config, sessionRepo, warmer)

	slog.Info("Services initialized successfully")
	return nil
}

// storeConfig maps cache configuration onto store settings
func (app *Application) storeConfig() *cache.StoreConfig {
	redis := app.config.Cache.Redis
	return &cache.StoreConfig{
		Addr:         redis.Addr,
		Password:     redis.Password,
		DB:           redis.DB,
		DialTimeout:  time.Duration(redis.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(redis.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(redis.WriteTimeout) * time.Second,
		OpTimeout:    time.Duration(app.config.Cache.OpTimeoutMS) * time.Millisecond,
		PingInterval: time.Duration(app.config.Cache.PingInterval) * time.Second,
	}
}

// Start starts the application
func (app *Application) Start() error {
	slog.Info("Starting application...")

	slog.Info("Starting scheduler...")
	app.scheduler.Start()

	slog.Info("Starting HTTP server", "port", app.config.Server.Port)
	return app.server.Start()
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	slog.Info("Shutting down application...")

	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.store != nil {
		if err := app.store.Close(); err != nil {
			slog.Warn("Error closing cache store", "error", err)
		}
	}

	if app.db != nil {
		if err := database.CloseDB(app.db); err != nil {
			slog.Warn("Error closing database", "error", err)
		}
	}

	slog.Info("Application shutdown complete")
	return nil
}

// Config returns the application configuration
func (app *Application) Config() *config.Config {
	return app.config
}
