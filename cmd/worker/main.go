package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/notifications"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/config"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/logger"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/migrate"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/pubsub"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	consumer, err := notifications.NewConsumer(dbClient.DB(), logg)
	requireResource(ctx, logg, "notifications consumer", err)

	svc, err := newService(consumer, pubsubClient.DomainSubscription(), logg)
	requireResource(ctx, logg, "worker service", err)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	runCtx = logg.WithField(runCtx, "env", cfg.App.Env)
	logg.Info(runCtx, "notifications worker ready")

	if err := svc.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "notifications worker not working", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "notifications worker stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
