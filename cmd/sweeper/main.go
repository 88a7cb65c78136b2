package main

import (
	"context"
	"os/signal"
	"syscall"

	"reserva/internal/slots/events"
	"reserva/internal/slots/repository"
	"reserva/internal/slots/sweeper"
	"reserva/pkg/clock"
	"reserva/pkg/config"
)

const ServiceName = "sweeper"

// Standalone lock reclaimer. Deployments that scale the HTTP service
// horizontally run one of these instead of the in-process sweeper goroutine.
func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}

	cfg.LogConfiguration()

	cfg.Log.Info("Starting Sweeper service")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	publisher, err := events.NewPublisher(cfg, ServiceName)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "error", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	}()

	store := repository.NewMongoSlotStore(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper.New(store, clock.System(), publisher, cfg).Start(ctx)
}
