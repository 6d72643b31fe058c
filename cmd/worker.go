package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"stayhub/internal/data/repository"
	"stayhub/internal/notification"
	"stayhub/pkg/database"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const reconnectDelay = 5 * time.Second

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume notification events and send emails",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context())
		},
	}
}

func runWorker(parent context.Context) error {
	config, logger, err := bootstrap("worker")
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(config.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	repos := repository.NewRepository(db, logger)
	handler := notification.NewHandler(
		repos,
		notification.NewMailer(config.Email, logger),
		notification.NewRedisDeduper(rdb, config.Redis.DedupTTL),
		config.Gateway.Currency,
		logger,
	)

	logger.Info("Starting notification worker",
		zap.String("queue", config.Rabbit.Queue),
		zap.Int("prefetch", config.Rabbit.Prefetch),
	)

	// Reconnect until shutdown; a dropped broker connection closes the delivery channel
	for {
		consumer := notification.NewConsumer(config.Rabbit, handler, logger)
		err := consumer.Connect()
		if err == nil {
			err = consumer.Run(ctx)
		}
		consumer.Close()

		if ctx.Err() != nil {
			logger.Info("Worker stopped")
			return nil
		}

		logger.Error("Consumer stopped, reconnecting",
			zap.Error(err),
			zap.Duration("delay", reconnectDelay))

		select {
		case <-ctx.Done():
			logger.Info("Worker stopped")
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}
