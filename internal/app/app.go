// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

// Package app wires configuration, storage, services and the HTTP server
// into a running agendo instance.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fr4nsys/agendo/internal/api"
	"github.com/fr4nsys/agendo/internal/api/handlers"
	apimiddleware "github.com/fr4nsys/agendo/internal/api/middleware"
	"github.com/fr4nsys/agendo/internal/pkg/logger"
	"github.com/fr4nsys/agendo/internal/repository/postgres"
	"github.com/fr4nsys/agendo/internal/repository/redis"
	"github.com/fr4nsys/agendo/internal/scheduler"
	authsvc "github.com/fr4nsys/agendo/internal/services/auth"
	eventsvc "github.com/fr4nsys/agendo/internal/services/event"
)

// BuildInfo carries version information injected at build time.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Application holds all application dependencies.
type Application struct {
	Config *Config
	Logger *logger.Logger
	Build  BuildInfo

	db        *postgres.DB
	redis     *redis.Client
	server    *api.Server
	reminders *scheduler.Scanner
}

// New creates an application from validated configuration.
func New(cfg *Config, build BuildInfo) (*Application, error) {
	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	return &Application{
		Config: cfg,
		Logger: log,
		Build:  build,
	}, nil
}

// Run starts the application and blocks until the context is cancelled or
// a termination signal arrives.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.initStorage(ctx); err != nil {
		return err
	}
	defer a.closeStorage()

	a.initServer()
	a.initReminders()

	if a.reminders != nil {
		if err := a.reminders.Start(ctx); err != nil {
			return fmt.Errorf("start reminder scanner: %w", err)
		}
		defer a.reminders.Stop()
	}

	errChan := a.server.StartAsync()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Infow("shutdown signal received")
	shutdownCtx := context.Background()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Errorw("server shutdown", "error", err)
	}
	return nil
}

func (a *Application) initStorage(ctx context.Context) error {
	db, err := postgres.New(ctx, a.Config.Database.URL, postgres.Options{
		MaxOpenConns:    a.Config.Database.MaxOpenConns,
		MaxIdleConns:    a.Config.Database.MaxIdleConns,
		ConnMaxLifetime: a.Config.Database.ConnMaxLifetime,
		ConnMaxIdleTime: a.Config.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	a.db = db

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	rdb, err := redis.New(ctx, a.Config.Redis.URL, redis.Options{
		PoolSize:     a.Config.Redis.PoolSize,
		MinIdleConns: a.Config.Redis.MinIdleConns,
		DialTimeout:  a.Config.Redis.DialTimeout,
		ReadTimeout:  a.Config.Redis.ReadTimeout,
		WriteTimeout: a.Config.Redis.WriteTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rdb

	return nil
}

func (a *Application) closeStorage() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warnw("close redis", "error", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

func (a *Application) initServer() {
	userRepo := postgres.NewUserRepository(a.db)
	eventRepo := postgres.NewEventRepository(a.db)
	inviteRepo := postgres.NewInviteRepository(a.db)
	blacklist := redis.NewJWTBlacklist(a.redis)

	jwtConfig := authsvc.DefaultJWTConfig(a.Config.Security.JWTSecret)
	if a.Config.Security.JWTExpiry > 0 {
		jwtConfig.TokenTTL = a.Config.Security.JWTExpiry
	}
	authService := authsvc.NewService(userRepo, authsvc.NewJWTService(jwtConfig), blacklist, a.Logger)
	eventService := eventsvc.NewService(eventRepo, inviteRepo, userRepo, a.Logger)

	routerConfig := api.DefaultRouterConfig(a.Config.Security.JWTSecret)
	routerConfig.RequestTimeout = a.Config.Server.RequestTimeout
	routerConfig.EnableDebugLogging = a.Config.Server.DebugLogging
	routerConfig.TokenValidator = api.RevocationValidator(authService.CheckTokenRevoked)
	if len(a.Config.CORS.AllowedOrigins) > 0 {
		routerConfig.CORSConfig.AllowedOrigins = a.Config.CORS.AllowedOrigins
	}

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = a.Config.Server.Host
	serverConfig.Port = a.Config.Server.Port
	serverConfig.TLSCert = a.Config.Server.TLSCertFile
	serverConfig.TLSKey = a.Config.Server.TLSKeyFile
	serverConfig.ReadTimeout = a.Config.Server.ReadTimeout
	serverConfig.WriteTimeout = a.Config.Server.WriteTimeout
	serverConfig.IdleTimeout = a.Config.Server.IdleTimeout
	serverConfig.ShutdownTimeout = a.Config.Server.ShutdownTimeout
	serverConfig.RouterConfig = routerConfig
	serverConfig.Logger = a.Logger

	system := handlers.NewSystemHandler(a.Build.Version, a.Build.Commit, a.Build.BuildTime, a.Logger)
	system.RegisterHealthChecker("postgres", a.dbHealthChecker())
	system.RegisterHealthChecker("redis", a.redisHealthChecker())

	a.server = api.NewServer(serverConfig, &api.Handlers{
		System: system,
		Auth:   handlers.NewAuthHandler(authService, a.Logger),
		Events: handlers.NewEventsHandler(eventService, a.Logger),
		Users:  handlers.NewUsersHandler(userRepo, a.Logger),
	})
	a.server.Setup()
}

func (a *Application) initReminders() {
	if !a.Config.Reminders.Enabled {
		return
	}

	config := scheduler.DefaultConfig()
	if a.Config.Reminders.ScanSpec != "" {
		config.ScanSpec = a.Config.Reminders.ScanSpec
	}
	if a.Config.Reminders.Lookahead > 0 {
		config.Lookahead = a.Config.Reminders.Lookahead
	}

	a.reminders = scheduler.New(postgres.NewEventRepository(a.db), config, nil, a.Logger)
}

func (a *Application) dbHealthChecker() handlers.HealthChecker {
	return func(ctx context.Context) *handlers.HealthStatus {
		if err := a.db.HealthCheck(ctx); err != nil {
			return &handlers.HealthStatus{Status: "unhealthy", Message: err.Error()}
		}
		return &handlers.HealthStatus{Status: "healthy"}
	}
}

func (a *Application) redisHealthChecker() handlers.HealthChecker {
	return func(ctx context.Context) *handlers.HealthStatus {
		if err := a.redis.HealthCheck(ctx); err != nil {
			return &handlers.HealthStatus{Status: "unhealthy", Message: err.Error()}
		}
		return &handlers.HealthStatus{Status: "healthy"}
	}
}

// withDB opens a database connection for one-shot commands.
func (a *Application) withDB(ctx context.Context, fn func(db *postgres.DB) error) error {
	db, err := postgres.New(ctx, a.Config.Database.URL, postgres.DefaultOptions())
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer db.Close()
	return fn(db)
}

// MigrateUp applies all pending migrations.
func (a *Application) MigrateUp(ctx context.Context) error {
	return a.withDB(ctx, func(db *postgres.DB) error {
		return db.Migrate(ctx)
	})
}

// MigrateDown rolls back the given number of migrations.
func (a *Application) MigrateDown(ctx context.Context, steps int) error {
	return a.withDB(ctx, func(db *postgres.DB) error {
		return db.MigrateDown(ctx, steps)
	})
}

// MigrationStatus reports each known migration and whether it is applied.
func (a *Application) MigrationStatus(ctx context.Context) ([]postgres.MigrationInfo, error) {
	var infos []postgres.MigrationInfo
	err := a.withDB(ctx, func(db *postgres.DB) error {
		var err error
		infos, err = db.MigrationStatus(ctx)
		return err
	})
	return infos, err
}

var _ apimiddleware.RequestLogger = (*logger.Logger)(nil)
