package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"frameshop/domain"
)

// Intake stores an order that arrived over the message queue, e.g. from the
// phone-order desk. Missing ids, tracking number and timestamps are filled
// in and prices are recomputed like for a web checkout. The order always
// starts out pending, whatever status the message carries.
func (s *Service) Intake(ctx context.Context, data []byte) (domain.Order, error) {
	order := domain.Order{}
	if err := json.Unmarshal(data, &order); err != nil {
		return domain.Order{}, fmt.Errorf("failed to unmarshal input json: %w", err)
	}
	if len(order.Items) == 0 {
		return domain.Order{}, ErrEmptyCart
	}

	req := Request{Customer: order.Customer, Shipping: order.Shipping, PromoCode: order.PromoCode, Note: order.Note}.Normalize()
	if err := req.Validate(); err != nil {
		return domain.Order{}, err
	}
	order.Customer, order.Shipping, order.Note = req.Customer, req.Shipping, req.Note

	items, totals, err := s.Quote(ctx, order.Items, req.PromoCode)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items, order.Totals = items, totals

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.TrackingNumber == "" {
		if order.TrackingNumber, err = s.tracking.Next(); err != nil {
			return domain.Order{}, err
		}
	}
	now := s.now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	order.Status = domain.StatusPending
	order.History = []domain.StatusChange{{To: domain.StatusPending, At: now.Truncate(time.Millisecond)}}

	if _, err = s.orders.Create(ctx, &order); err != nil {
		return domain.Order{}, fmt.Errorf("failed to save data to database: %w", err)
	}
	s.publish(order)
	return order, nil
}
