package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"

	"frameshop/internal/admin"
	"frameshop/internal/fulfillment"
	"frameshop/internal/repositories"
)

var fulfillmentCmd = &cobra.Command{
	Use:   "fulfillment",
	Short: "Consume print jobs and move their orders to processing",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.Storage.Driver != "postgres" {
			return errors.New("fulfillment shares orders with serve and needs storage.driver: postgres")
		}
		if cfg.RabbitMQ.URI == "" {
			return errors.New("RABBITMQ_URI is required")
		}

		db, err := openDB(cfg.Postgres)
		if err != nil {
			return err
		}
		defer func() {
			_ = db.Close()
		}()
		orders, err := repositories.NewOrderRepository(ctx, db)
		if err != nil {
			return err
		}

		conn, err := amqp.Dial(cfg.RabbitMQ.URI)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer func() {
			_ = conn.Close()
		}()

		ch, err := conn.Channel()
		if err != nil {
			return err
		}
		err = fulfillment.DeclareQueue(ch, cfg.RabbitMQ.Queue)
		_ = ch.Close()
		if err != nil {
			return err
		}

		// this process has no view of the tracking cache held by serve, so
		// cached tracking answers catch up once cache.order_ttl expires
		log := logger.Named("print")
		statuses := admin.NewService(orders, nil, nil, log)
		pool := fulfillment.NewPool(fulfillment.MarkProcessing(statuses, log), cfg.RabbitMQ.Workers, cfg.RabbitMQ.Prefetch, log)
		return pool.Run(ctx, conn, cfg.RabbitMQ.Queue)
	},
}
