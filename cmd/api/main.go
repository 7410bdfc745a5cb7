package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/omarsegovia/pipelinecrm-backend/api/routes"
	"github.com/omarsegovia/pipelinecrm-backend/internal/audit"
	"github.com/omarsegovia/pipelinecrm-backend/internal/auth"
	"github.com/omarsegovia/pipelinecrm-backend/internal/companies"
	"github.com/omarsegovia/pipelinecrm-backend/internal/contacts"
	"github.com/omarsegovia/pipelinecrm-backend/internal/deals"
	"github.com/omarsegovia/pipelinecrm-backend/internal/lifecycle"
	"github.com/omarsegovia/pipelinecrm-backend/internal/ownership"
	"github.com/omarsegovia/pipelinecrm-backend/internal/users"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/config"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/db"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/logger"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/mailer"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/metrics"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/migrate"
	"github.com/omarsegovia/pipelinecrm-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	lifecycleMetrics := metrics.NewLifecycleMetrics(registry)

	mailClient := mailer.New(cfg.Mailer)

	usersRepo := users.NewRepository(dbClient.DB())
	auditService, err := audit.NewService(audit.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(dbClient, usersRepo, auditService, mailClient, logg, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	lifecycleService, err := lifecycle.NewService(
		dbClient,
		usersRepo,
		ownership.NewRepository(dbClient.DB()),
		auditService,
		mailClient,
		logg,
		lifecycleMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create lifecycle service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	companiesService, err := companies.NewService(dbClient, companies.NewRepository(dbClient.DB()), usersRepo, auditService)
	if err != nil {
		logg.Error(context.Background(), "failed to create companies service", err)
		os.Exit(1)
	}

	contactsService, err := contacts.NewService(dbClient, contacts.NewRepository(dbClient.DB()), usersRepo, auditService)
	if err != nil {
		logg.Error(context.Background(), "failed to create contacts service", err)
		os.Exit(1)
	}

	dealsService, err := deals.NewService(dbClient, deals.NewRepository(dbClient.DB()), usersRepo, auditService)
	if err != nil {
		logg.Error(context.Background(), "failed to create deals service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			authService,
			usersService,
			lifecycleService,
			auditService,
			companiesService,
			contactsService,
			dealsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
