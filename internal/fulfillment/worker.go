package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"frameshop/domain"
)

// JobHandler processes one print job. A returned error drops the job.
type JobHandler interface {
	HandlePrintJob(ctx context.Context, job PrintJob) error
}

type JobHandlerFunc func(ctx context.Context, job PrintJob) error

func (f JobHandlerFunc) HandlePrintJob(ctx context.Context, job PrintJob) error {
	return f(ctx, job)
}

// Pool consumes print jobs with a fixed number of workers, each on its own channel.
type Pool struct {
	handler  JobHandler
	logger   *zap.Logger
	workers  int
	prefetch int
}

func NewPool(handler JobHandler, workers, prefetch int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if prefetch < 1 {
		prefetch = 10
	}
	return &Pool{handler: handler, logger: logger, workers: workers, prefetch: prefetch}
}

// Run consumes queue until ctx is cancelled or a channel fails.
func (p *Pool) Run(ctx context.Context, conn *amqp.Connection, queue string) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < p.workers; i++ {
		ch, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("worker %d: failed to open channel: %w", i, err)
		}
		if err = ch.Qos(p.prefetch, 0, false); err != nil {
			_ = ch.Close()
			return fmt.Errorf("worker %d: failed to set qos: %w", i, err)
		}
		msgs, err := ch.Consume(queue, fmt.Sprintf("frameshop-print-%d", i), false, false, false, false, nil)
		if err != nil {
			_ = ch.Close()
			return fmt.Errorf("worker %d: failed to consume: %w", i, err)
		}

		id := i
		g.Go(func() error {
			defer ch.Close()
			p.logger.Info("print worker started", zap.Int("worker", id))
			p.Consume(ctx, id, msgs)
			return nil
		})
	}

	return g.Wait()
}

// Consume handles deliveries until msgs is closed or ctx is done.
func (p *Pool) Consume(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				return
			}
			p.handle(ctx, id, d)
		}
	}
}

func (p *Pool) handle(ctx context.Context, id int, d amqp.Delivery) {
	var job PrintJob
	if err := json.Unmarshal(d.Body, &job); err != nil || job.OrderID == "" {
		// nothing to retry on a broken message
		p.logger.Warn("dropping malformed print job", zap.Int("worker", id), zap.String("message", d.MessageId))
		_ = d.Ack(false)
		return
	}

	if err := p.handler.HandlePrintJob(ctx, job); err != nil {
		p.logger.Error("print job failed",
			zap.Int("worker", id),
			zap.String("order", job.OrderID),
			zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	p.logger.Debug("print job done", zap.Int("worker", id), zap.String("order", job.OrderID))
	_ = d.Ack(false)
}

// OrderStatusUpdater is the part of the order repository the print handler needs.
type OrderStatusUpdater interface {
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, note string) (domain.Order, error)
}

// MarkProcessing moves the order of each job to processing. Orders that were
// cancelled in the meantime are skipped.
func MarkProcessing(orders OrderStatusUpdater, logger *zap.Logger) JobHandler {
	return JobHandlerFunc(func(ctx context.Context, job PrintJob) error {
		_, err := orders.UpdateStatus(ctx, job.OrderID, domain.StatusProcessing, "sent to print")
		if errors.Is(err, domain.ErrInvalidTransition) {
			logger.Info("skipping print job", zap.String("order", job.OrderID), zap.Error(err))
			return nil
		}
		return err
	})
}
