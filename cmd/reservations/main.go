package main

import (
	"context"
	bookingsrepo "expertconnect/internal/bookings/repository"
	"expertconnect/internal/events"
	"expertconnect/internal/reservations/handler"
	"expertconnect/internal/reservations/service"
	"expertconnect/internal/reservations/validator"
	slotsrepo "expertconnect/internal/slots/repository"
	"expertconnect/pkg/app"
	"expertconnect/pkg/config"
	kafka_config "expertconnect/pkg/kafka/config"
	"time"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	connectStores(cfg)

	cfg.Log.Info("Starting Reservations service", "instance_id", cfg.InstanceID)
	bus := events.NewBus()
	publisher, shutdownEvents := initEvents(cfg, bus)
	reservationService := initServices(cfg, publisher)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewHealthHandler(cfg.Client, cfg.Log),
		handler.NewReservationHandler(reservationService, cfg.Log),
		events.StreamPath,
		events.NewStreamHandler(bus, cfg.EventSubscriberBuffer, cfg.EventKeepAlive, cfg.Log),
	)
	// Closing the bus ends every open event stream so the server can drain.
	serverApp.BeforeShutdown(bus.Close)
	serverApp.OnShutdown(shutdownEvents)
	serverApp.OnShutdown(cfg.GracefulShutdown)
	serverApp.Run()
}

func connectStores(cfg *config.Config) {
	if cfg.NeedsMongo() {
		cfg.SetMongo()
	}
	switch cfg.SlotStoreBackend {
	case config.BackendRedis:
		cfg.SetRedis()
	case config.BackendPostgres:
		cfg.SetPostgres()
		ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreConnTimeout)
		defer cancel()
		if err := slotsrepo.EnsurePostgresSchema(ctx, cfg.Client.Postgres); err != nil {
			cfg.Log.Fatal("Failed to ensure Postgres slot schema", "error", err)
		}
	}
}

func initServices(cfg *config.Config, publisher events.Publisher) service.ReservationService {
	reservationService := service.NewReservationService(
		newSlotRepository(cfg),
		newBookingRepository(cfg),
		validator.NewReservationValidator(),
		publisher,
		cfg,
	)

	cfg.Log.Info("Reservation service initialized",
		"slot_store", cfg.SlotStoreBackend,
		"ledger", cfg.LedgerBackend,
		"enforce_status_transitions", cfg.EnforceStatusTransitions,
	)
	return reservationService
}

func newSlotRepository(cfg *config.Config) slotsrepo.SlotRepository {
	switch cfg.SlotStoreBackend {
	case config.BackendMongo:
		return slotsrepo.NewMongoSlotRepository(cfg)
	case config.BackendRedis:
		return slotsrepo.NewRedisSlotRepository(cfg.Client.Redis, slotsrepo.WithRedisTimeout(cfg.WriteTimeout))
	case config.BackendPostgres:
		return slotsrepo.NewPostgresSlotRepository(cfg.Client.Postgres, cfg.WriteTimeout)
	default:
		return slotsrepo.NewMemorySlotRepository()
	}
}

func newBookingRepository(cfg *config.Config) bookingsrepo.BookingRepository {
	if cfg.LedgerBackend == config.BackendMongo {
		return bookingsrepo.NewMongoBookingRepository(cfg)
	}
	return bookingsrepo.NewMemoryBookingRepository()
}

// initEvents returns the publisher the coordinator writes to. With Kafka
// enabled, events go to the local bus and the topic, and a relay feeds other
// instances' events back into the local bus.
func initEvents(cfg *config.Config, bus *events.Bus) (events.Publisher, func()) {
	if !cfg.EventsKafkaEnabled {
		cfg.Log.Info("Kafka event bridge disabled, events are local to this instance")
		return bus, func() {}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := events.NewKafkaPublisher(kafkaCfg, cfg.EventsTopic, cfg.InstanceID, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka event publisher", "error", err)
	}
	relay, err := events.NewKafkaRelay(kafkaCfg, cfg.EventsTopic, cfg.InstanceID, bus, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka event relay", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := relay.Start(ctx); err != nil && ctx.Err() == nil {
			cfg.Log.Error("Kafka event relay stopped", "error", err)
		}
	}()

	cfg.Log.Info("Kafka event bridge enabled", "topic", cfg.EventsTopic)
	shutdown := func() {
		cancel()
		if err := relay.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka event relay", "error", err)
		}
		select {
		case <-done:
		case <-time.After(cfg.ShutdownTimeout):
			cfg.Log.Warn("Kafka event relay did not stop in time")
		}
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka event publisher", "error", err)
		}
	}
	return events.NewMultiPublisher(cfg.Log, bus, producer), shutdown
}
