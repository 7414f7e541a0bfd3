package main

import (
	"roomstay/internal/inventory/handler"
	"roomstay/internal/inventory/repository"
	"roomstay/internal/inventory/service"
	"roomstay/internal/inventory/validator"
	"roomstay/pkg/app"
	"roomstay/pkg/clock"
	"roomstay/pkg/config"
	"roomstay/pkg/kafka"
	kafka_config "roomstay/pkg/kafka/config"
)

const ServiceName = "inventory"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.Client.SetCatalog(cfg.CatalogBaseURL)
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Inventory service")

	producer := initProducer(cfg)
	defer func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}()

	holdService, ledgerService := initServices(cfg, producer)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewInventoryHandler(holdService, ledgerService, cfg.Log))
	serverApp.Run()
}

func initProducer(cfg *config.Config) *kafka.Producer {
	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.HoldEventsTopic, kafkaCfg.HoldEventsDLQ)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	cfg.Log.Info("Kafka producer initialized",
		"topic", kafkaCfg.HoldEventsTopic,
		"dlq_topic", kafkaCfg.HoldEventsDLQ,
		"brokers", kafkaCfg.Brokers,
	)
	return producer
}

func initServices(cfg *config.Config, producer *kafka.Producer) (service.HoldService, service.LedgerService) {
	clk := clock.NewSystem()
	inventoryValidator := validator.NewInventoryValidator(cfg.Log)

	ledgerRepo := repository.NewMongoLedgerRepository(cfg)
	holdRepo := repository.NewMongoHoldRepository(cfg)
	lockRepo := repository.NewMongoRangeLockRepository(cfg)

	locks := service.NewLockManager(lockRepo, clk, cfg)
	events := service.NewEventPublisher(producer, cfg.Log)

	ledgerService := service.NewLedgerService(
		ledgerRepo,
		locks,
		inventoryValidator,
		cfg.Client.Catalog,
		clk,
		cfg,
	)
	holdService := service.NewHoldService(
		holdRepo,
		ledgerRepo,
		locks,
		inventoryValidator,
		events,
		clk,
		cfg,
	)

	cfg.Log.Info("Inventory services initialized", "database", cfg.MongoDatabaseName)
	return holdService, ledgerService
}
