package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"frameshop/domain"
	"frameshop/internal/cart"
	"frameshop/internal/pricing"
	"frameshop/internal/repositories"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrNotFound           = errors.New("order not found")
	ErrProductUnavailable = errors.New("product is not available")
)

// EventOrderCreated is the type of the event published after checkout.
const EventOrderCreated = "order.created"

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) (int64, error)
	GetByTracking(ctx context.Context, tracking string) (domain.Order, error)
}

type ProductRepository interface {
	Get(ctx context.Context, id string) (domain.Product, error)
}

type CatalogRepository interface {
	Catalog(ctx context.Context) (domain.Catalog, error)
}

type Publisher interface {
	Publish(subject string, data []byte) error
}

// OrderEvent message published on the events subject.
type OrderEvent struct {
	Type  string       `json:"type"`
	Order domain.Order `json:"order"`
}

type Service struct {
	carts    cart.Store
	orders   OrderRepository
	products ProductRepository
	catalog  CatalogRepository
	calc     *pricing.Calculator
	tracking *TrackingGenerator

	publisher     Publisher
	eventsSubject string

	logger *zap.Logger
	now    func() time.Time
}

type Deps struct {
	Carts         cart.Store
	Orders        OrderRepository
	Products      ProductRepository
	Catalog       CatalogRepository
	Calculator    *pricing.Calculator
	Tracking      *TrackingGenerator
	Publisher     Publisher
	EventsSubject string
	Logger        *zap.Logger
}

func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		carts:         d.Carts,
		orders:        d.Orders,
		products:      d.Products,
		catalog:       d.Catalog,
		calc:          d.Calculator,
		tracking:      d.Tracking,
		publisher:     d.Publisher,
		eventsSubject: d.EventsSubject,
		logger:        logger,
		now:           time.Now,
	}
}

// Reprice recomputes every item against the current products and catalog.
// Prices sent by a client are never trusted.
func (s *Service) Reprice(ctx context.Context, items []domain.CheckoutItem) ([]domain.CheckoutItem, error) {
	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	products := map[string]domain.Product{}
	res := make([]domain.CheckoutItem, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			product, err = s.products.Get(ctx, item.ProductID)
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, item.ProductID)
			}
			if err != nil {
				return nil, err
			}
			products[item.ProductID] = product
		}
		if !product.Active {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, product.Name)
		}

		if item.Quantity > domain.MaxQuantity {
			return nil, fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, item.Quantity)
		}

		priced := pricing.Item(product, catalog, item.Frame())
		priced.ID = item.ID
		res = append(res, priced)
	}
	return res, nil
}

// Quote prices items and applies the promotion and shipping rules.
func (s *Service) Quote(ctx context.Context, items []domain.CheckoutItem, promoCode string) ([]domain.CheckoutItem, domain.Totals, error) {
	priced, err := s.Reprice(ctx, items)
	if err != nil {
		return nil, domain.Totals{}, err
	}
	totals, err := s.calc.Totals(priced, promoCode)
	if err != nil {
		return nil, domain.Totals{}, err
	}
	return priced, totals, nil
}

// Checkout turns the cart into a pending order, stores it, announces it and
// empties the cart.
func (s *Service) Checkout(ctx context.Context, cartID string, req Request) (domain.Order, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return domain.Order{}, err
	}

	c, err := s.carts.Get(cartID)
	if err != nil {
		return domain.Order{}, err
	}
	if len(c.Items) == 0 {
		return domain.Order{}, ErrEmptyCart
	}

	items, totals, err := s.Quote(ctx, c.Items, req.PromoCode)
	if err != nil {
		return domain.Order{}, err
	}

	tracking, err := s.tracking.Next()
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to generate tracking number: %w", err)
	}

	now := s.now().UTC()
	order := domain.Order{
		ID:             uuid.NewString(),
		TrackingNumber: tracking,
		Status:         domain.StatusPending,
		Customer:       req.Customer,
		Shipping:       req.Shipping,
		Items:          items,
		Totals:         totals,
		PromoCode:      strings.ToUpper(req.PromoCode),
		Note:           req.Note,
		CreatedAt:      now,
		UpdatedAt:      now,
		History:        []domain.StatusChange{{To: domain.StatusPending, At: now}},
	}

	if _, err = s.orders.Create(ctx, &order); err != nil {
		return domain.Order{}, fmt.Errorf("failed to save order: %w", err)
	}

	s.publish(order)

	if err = s.carts.Clear(cartID); err != nil {
		s.logger.Warn("failed to clear cart after checkout", zap.String("cart", cartID), zap.Error(err))
	}

	s.logger.Info("order created",
		zap.String("order", order.ID),
		zap.String("tracking", order.TrackingNumber),
		zap.Int("items", len(order.Items)),
		zap.Int("total", order.Totals.Total))
	return order, nil
}

// publish announces the order; the order is already stored so a failure is only logged.
func (s *Service) publish(order domain.Order) {
	if s.publisher == nil || s.eventsSubject == "" {
		return
	}
	data, err := json.Marshal(OrderEvent{Type: EventOrderCreated, Order: order})
	if err != nil {
		s.logger.Error("failed to encode order event", zap.String("order", order.ID), zap.Error(err))
		return
	}
	if err = s.publisher.Publish(s.eventsSubject, data); err != nil {
		s.logger.Warn("failed to publish order event", zap.String("order", order.ID), zap.Error(err))
	}
}

// Track looks an order up by tracking number. The email must match the one
// given at checkout, otherwise the order is reported as not found.
func (s *Service) Track(ctx context.Context, tracking, email string) (domain.Order, error) {
	tracking = strings.ToUpper(strings.TrimSpace(tracking))
	order, err := s.orders.GetByTracking(ctx, tracking)
	if errors.Is(err, repositories.ErrNotFound) {
		return domain.Order{}, ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	if !strings.EqualFold(strings.TrimSpace(email), order.Customer.Email) {
		return domain.Order{}, ErrNotFound
	}
	return order, nil
}
