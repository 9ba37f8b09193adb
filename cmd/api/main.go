package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/api/controllers"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/api/routes"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/auth"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/companies"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/events"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/membership"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/notifications"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/quizzes"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/users"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/auth/session"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/config"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/logger"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/metrics"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/migrate"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/pubsub"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	registry := prometheus.NewRegistry()
	workflowMetrics := metrics.NewWorkflowMetrics(registry)

	readiness := map[string]controllers.ReadinessPinger{
		"database": dbClient,
		"redis":    redisClient,
	}

	var publisher *events.Publisher
	if cfg.PubSub.ProjectID != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSub, logg)
		requireResource(ctx, logg, "pubsub", err)
		defer pubsubClient.Close()

		publisher, err = events.NewPublisher(pubsubClient.DomainPublisher(), logg)
		requireResource(ctx, logg, "event publisher", err)
		readiness["pubsub"] = pubsubClient
	} else {
		logg.Warn(ctx, "pubsub project not configured, domain events disabled")
	}

	authService, err := auth.NewService(dbClient.DB(), sessionManager, cfg.JWT, cfg.Password, logg)
	requireResource(ctx, logg, "auth service", err)

	usersService, err := users.NewService(dbClient.DB(), cfg.Password, logg)
	requireResource(ctx, logg, "users service", err)

	companiesService, err := companies.NewService(dbClient.DB(), logg)
	requireResource(ctx, logg, "companies service", err)

	membershipService, err := membership.NewService(dbClient.DB(), logg, workflowMetrics, publisher)
	requireResource(ctx, logg, "membership service", err)

	quizzesService, err := quizzes.NewService(dbClient.DB(), logg, redisClient, cfg.Quiz.AttemptCacheTTL, publisher)
	requireResource(ctx, logg, "quizzes service", err)

	notificationsService, err := notifications.NewService(dbClient.DB(), logg)
	requireResource(ctx, logg, "notifications service", err)

	router := routes.NewRouter(routes.Dependencies{
		Config:        cfg,
		Logger:        logg,
		Sessions:      sessionManager,
		Readiness:     readiness,
		Registry:      registry,
		Auth:          authService,
		Users:         usersService,
		Companies:     companiesService,
		Membership:    membershipService,
		Quizzes:       quizzesService,
		Notifications: notificationsService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-runCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(runCtx, "api server stopped")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
