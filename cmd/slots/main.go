package main

import (
	"context"
	"time"

	"slotbook/internal/propagation"
	"slotbook/internal/slots/handler"
	"slotbook/internal/slots/service"
	"slotbook/internal/slots/validator"
	"slotbook/pkg/app"
	"slotbook/pkg/config"
	"slotbook/pkg/eventstore"
	"slotbook/pkg/kafka"
	kafka_config "slotbook/pkg/kafka/config"
	kafka_middleware "slotbook/pkg/kafka/middleware"
)

const ServiceName = "slots"

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting Slots service")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	store := eventstore.NewMongoStore(cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.ReadTimeout, cfg.WriteTimeout)
	relay, channel := initPropagation(cfg, store)
	slotService := initServices(cfg, store, relay)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewSlotHandler(slotService, cfg.Log))
	serverApp.OnShutdown(func() {
		// Drain queued events before the producer goes away.
		relay.Stop()
		if err := channel.Close(); err != nil {
			cfg.Log.Error("Failed to close propagation channel", "error", err)
		}
		cfg.Log.Info("Transport totals", kafka_middleware.GetMetrics().Snapshot()...)
	})
	serverApp.Run()
}

func initPropagation(cfg *config.Config, store *eventstore.MongoStore) (*propagation.Relay, propagation.Channel) {
	kafkaCfg := kafka_config.Load()

	producer, err := kafka.NewProducer(kafkaCfg, propagation.EventsTopic, propagation.EventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(kafka_middleware.MetricsProducerMiddleware())

	channel := propagation.NewKafkaChannel(producer)
	cursors := propagation.NewMongoCursorStore(cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.ReadTimeout, cfg.WriteTimeout)
	relay := propagation.NewRelay(channel, cursors, cfg.Log)

	// Republish anything appended before a crash that never reached the
	// channel, before the server starts taking commands.
	resumeCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := relay.Resume(resumeCtx, store); err != nil {
		cfg.Log.Fatal("Failed to resume event propagation", "error", err)
	}

	cfg.Log.Info("Propagation relay initialized", "topic", propagation.EventsTopic)
	return relay, channel
}

func initServices(cfg *config.Config, store *eventstore.MongoStore, relay *propagation.Relay) service.SlotService {
	slotValidator := validator.NewSlotValidator(cfg.Log)
	slotService := service.NewSlotService(store, relay, slotValidator, cfg)

	cfg.Log.Info("Slot service initialized", "database", cfg.MongoDatabaseName)
	return slotService
}
