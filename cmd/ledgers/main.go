package main

import (
	"context"

	"slotbook/internal/ledgers/consumer"
	ledgershandler "slotbook/internal/ledgers/handler"
	ledgersservice "slotbook/internal/ledgers/service"
	"slotbook/internal/propagation"
	readmodelhandler "slotbook/internal/readmodel/handler"
	"slotbook/internal/readmodel/projector"
	"slotbook/internal/readmodel/repository"
	readmodelservice "slotbook/internal/readmodel/service"
	"slotbook/pkg/app"
	"slotbook/pkg/config"
	"slotbook/pkg/eventstore"
	"slotbook/pkg/kafka"
	kafka_config "slotbook/pkg/kafka/config"
	kafka_middleware "slotbook/pkg/kafka/middleware"
)

const (
	ServiceName   = "ledgers"
	ConsumerGroup = "participant-ledgers"
)

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting Ledgers service")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	ledgerService, queryService := initServices(cfg)
	eventsConsumer := initConsumer(cfg, ledgerService)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg,
		readmodelhandler.NewQueryHandler(queryService, cfg.Log),
		ledgershandler.NewLedgerHandler(ledgerService, cfg.Log),
	)
	serverApp.AddWorker(func(ctx context.Context) {
		if err := eventsConsumer.Start(ctx); err != nil && ctx.Err() == nil {
			cfg.Log.Error("Event consumer stopped", "error", err)
		}
	})
	serverApp.OnShutdown(func() {
		if err := eventsConsumer.Close(); err != nil {
			cfg.Log.Error("Failed to close event consumer", "error", err)
		}
		cfg.Log.Info("Transport totals", kafka_middleware.GetMetrics().Snapshot()...)
	})
	serverApp.Run()
}

func initServices(cfg *config.Config) (ledgersservice.LedgerService, readmodelservice.QueryService) {
	store := eventstore.NewMongoStore(cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.ReadTimeout, cfg.WriteTimeout)

	rowRepo := repository.NewMongoSlotRowRepository(cfg)
	rowProjector := projector.NewProjector(rowRepo, cfg.Log)

	ledgerService := ledgersservice.NewLedgerService(store, cfg.Log, rowProjector)
	queryService := readmodelservice.NewQueryService(rowRepo)

	cfg.Log.Info("Ledger and read-model services initialized", "database", cfg.MongoDatabaseName)
	return ledgerService, queryService
}

func initConsumer(cfg *config.Config, ledgerService ledgersservice.LedgerService) *kafka.Consumer {
	kafkaCfg := kafka_config.Load()

	eventConsumer := consumer.NewEventConsumer(ledgerService, cfg.Log)
	kafkaConsumer, err := kafka.NewConsumer(
		kafkaCfg,
		propagation.EventsTopic,
		ConsumerGroup,
		propagation.EventsDLQTopic,
		eventConsumer.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	kafkaConsumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	kafkaConsumer.Use(kafka_middleware.MetricsConsumerMiddleware())

	cfg.Log.Info("Event consumer initialized",
		"topic", propagation.EventsTopic,
		"group", ConsumerGroup,
	)
	return kafkaConsumer
}
