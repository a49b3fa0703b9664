// Package fulfillment hands paid orders to the print shop over RabbitMQ and
// consumes the resulting print jobs.
package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"frameshop/domain"
)

// PrintJob everything the print shop needs to produce an order.
type PrintJob struct {
	OrderID        string                `json:"order_id"`
	TrackingNumber string                `json:"tracking_number"`
	Items          []domain.CheckoutItem `json:"items"`
	Shipping       domain.Shipping       `json:"shipping"`
	QueuedAt       time.Time             `json:"queued_at"`
}

func NewPrintJob(order domain.Order, at time.Time) PrintJob {
	return PrintJob{
		OrderID:        order.ID,
		TrackingNumber: order.TrackingNumber,
		Items:          order.Items,
		Shipping:       order.Shipping,
		QueuedAt:       at,
	}
}

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends print jobs to a durable queue.
type Publisher struct {
	ch    channel
	queue string
	now   func() time.Time
}

// DeclareQueue makes sure the durable print job queue exists.
func DeclareQueue(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s queue: %w", queue, err)
	}
	return nil
}

// NewPublisher opens a channel on conn and declares the queue.
func NewPublisher(conn *amqp.Connection, queue string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	if err = DeclareQueue(ch, queue); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return &Publisher{ch: ch, queue: queue, now: time.Now}, nil
}

// Enqueue publishes a persistent print job for order.
func (p *Publisher) Enqueue(ctx context.Context, order domain.Order) error {
	body, err := json.Marshal(NewPrintJob(order, p.now().UTC()))
	if err != nil {
		return err
	}

	err = p.ch.PublishWithContext(ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    order.ID,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish print job for %s: %w", order.ID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}
