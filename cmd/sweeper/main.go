package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"roomstay/internal/inventory/repository"
	"roomstay/internal/inventory/service"
	"roomstay/pkg/clock"
	"roomstay/pkg/config"
	"roomstay/pkg/kafka"
	kafka_config "roomstay/pkg/kafka/config"
)

const ServiceName = "sweeper"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Sweeper service")

	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.HoldEventsTopic, kafkaCfg.HoldEventsDLQ)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	defer func() {
		if closeErr := producer.Close(); closeErr != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", closeErr)
		}
	}()

	clk := clock.NewSystem()
	sweeper := service.NewSweeper(
		repository.NewMongoHoldRepository(cfg),
		repository.NewMongoLedgerRepository(cfg),
		repository.NewMongoRangeLockRepository(cfg),
		service.NewEventPublisher(producer, cfg.Log),
		clk,
		cfg,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper.Run(ctx)
}
