// Package admin backs the order management dashboard: searching, status
// changes one by one or in bulk, and the summary counters.
package admin

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"frameshop/domain"
	"frameshop/internal/pagination"
)

// MaxBulkIDs caps how many orders one bulk update may touch.
const MaxBulkIDs = 500

var ErrTooManyIDs = fmt.Errorf("at most %d orders can be updated at once", MaxBulkIDs)

type OrderRepository interface {
	Get(ctx context.Context, id string) (domain.Order, error)
	Search(ctx context.Context, filter domain.OrderFilter, page, perPage int) ([]domain.Order, pagination.Page, error)
	// UpdateStatus reports whether the status actually changed.
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, note string) (domain.Order, bool, error)
	BulkUpdateStatus(ctx context.Context, ids []string, status domain.OrderStatus, note string) (domain.BulkResult, error)
	Stats(ctx context.Context) (domain.OrderStats, error)
}

// Cache holds orders served to the tracking page, keyed by tracking number.
type Cache interface {
	Delete(ctx context.Context, key string) error
}

// PrintQueue receives orders once they are paid.
type PrintQueue interface {
	Enqueue(ctx context.Context, order domain.Order) error
}

type Service struct {
	orders OrderRepository
	cache  Cache
	queue  PrintQueue
	logger *zap.Logger
}

func NewService(orders OrderRepository, cache Cache, queue PrintQueue, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{orders: orders, cache: cache, queue: queue, logger: logger}
}

// Listing one page of the dashboard.
type Listing struct {
	Orders []domain.Order  `json:"orders"`
	Page   pagination.Page `json:"page"`
	Filter ListingFilter   `json:"filter"`
}

// ListingFilter echoes the filter back in a template friendly form.
type ListingFilter struct {
	Status string `json:"status,omitempty"`
	Query  string `json:"query,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
}

func (s *Service) Search(ctx context.Context, filter domain.OrderFilter, page, perPage int) (Listing, error) {
	orders, p, err := s.orders.Search(ctx, filter, page, perPage)
	if err != nil {
		return Listing{}, err
	}

	l := Listing{
		Orders: orders,
		Page:   p,
		Filter: ListingFilter{Status: string(filter.Status), Query: filter.Query},
	}
	if !filter.From.IsZero() {
		l.Filter.From = filter.From.Format(dateLayout)
	}
	if !filter.To.IsZero() {
		l.Filter.To = filter.To.AddDate(0, 0, -1).Format(dateLayout)
	}
	return l, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Order, error) {
	return s.orders.Get(ctx, id)
}

func (s *Service) Stats(ctx context.Context) (domain.OrderStats, error) {
	return s.orders.Stats(ctx)
}

// UpdateStatus moves one order and runs the side effects of the new status.
// Repeating the current status succeeds without side effects.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, note string) (domain.Order, error) {
	order, changed, err := s.orders.UpdateStatus(ctx, id, status, note)
	if err != nil {
		return domain.Order{}, err
	}
	if changed {
		s.afterUpdate(ctx, order)
	}
	return order, nil
}

// BulkUpdateStatus moves every order independently; duplicates are ignored.
func (s *Service) BulkUpdateStatus(ctx context.Context, ids []string, status domain.OrderStatus, note string) (domain.BulkResult, error) {
	ids = unique(ids)
	if len(ids) == 0 {
		return domain.BulkResult{Updated: []string{}, Unchanged: []string{}, Failed: []domain.BulkFailure{}}, nil
	}
	if len(ids) > MaxBulkIDs {
		return domain.BulkResult{}, ErrTooManyIDs
	}

	res, err := s.orders.BulkUpdateStatus(ctx, ids, status, note)
	if err != nil {
		return domain.BulkResult{}, err
	}

	for _, id := range res.Updated {
		order, err := s.orders.Get(ctx, id)
		if err != nil {
			s.logger.Warn("failed to reload updated order", zap.String("order", id), zap.Error(err))
			continue
		}
		s.afterUpdate(ctx, order)
	}

	s.logger.Info("bulk status update",
		zap.String("status", string(status)),
		zap.Int("updated", len(res.Updated)),
		zap.Int("failed", len(res.Failed)))
	return res, nil
}

// afterUpdate drops the cached tracking view and sends paid orders to print.
// The status change is already committed, so failures here are only logged.
func (s *Service) afterUpdate(ctx context.Context, order domain.Order) {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, order.TrackingNumber); err != nil {
			s.logger.Warn("failed to invalidate cached order", zap.String("order", order.ID), zap.Error(err))
		}
	}
	if order.Status != domain.StatusPaid || s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(ctx, order); err != nil {
		s.logger.Error("failed to enqueue print job", zap.String("order", order.ID), zap.Error(err))
	}
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	res := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		res = append(res, id)
	}
	return res
}
