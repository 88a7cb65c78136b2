package main

import (
	"context"

	bookingservice "reserva/internal/booking/service"
	"reserva/internal/slots/events"
	"reserva/internal/slots/handler"
	"reserva/internal/slots/repository"
	"reserva/internal/slots/service"
	"reserva/internal/slots/sweeper"
	"reserva/internal/slots/validator"
	"reserva/pkg/app"
	"reserva/pkg/clock"
	"reserva/pkg/config"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}

	cfg.LogConfiguration()

	cfg.Log.Info("Starting Reservations service")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	if err := repository.EnsureIndexes(context.Background(), cfg); err != nil {
		cfg.Log.Fatal("Failed to create slot indexes", "error", err)
	}

	publisher, err := events.NewPublisher(cfg, ServiceName)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "error", err)
	}

	store := repository.NewMongoSlotStore(cfg)
	clk := clock.System()
	coordinator := service.NewReservationCoordinator(store, clk, publisher, cfg)
	confirmer := bookingservice.NewBookingConfirmer(coordinator, cfg)
	slotValidator := validator.NewSlotValidator(cfg.Log)

	cfg.Log.Info("Reservation services initialized", "database", cfg.MongoDatabaseName)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	lockSweeper := sweeper.New(store, clk, publisher, cfg)
	go lockSweeper.Start(sweepCtx)

	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown(stopSweeper)
	serverApp.OnShutdown(func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	})
	serverApp.SetApp(handler.NewSlotHandler(coordinator, confirmer, slotValidator, cfg.Log))
	serverApp.Run()
}
