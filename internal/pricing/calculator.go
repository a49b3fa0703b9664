package pricing

import (
	"fmt"

	"frameshop/domain"
)

// Config shop wide pricing settings.
type Config struct {
	Currency              string
	ShippingFee           int
	FreeShippingThreshold int
	Promotions            []Promotion
}

// Calculator turns priced items into order totals: promotion first, then shipping.
type Calculator struct {
	currency      string
	shippingFee   int
	freeThreshold int
	promotions    *Promotions
}

func NewCalculator(cfg Config) (*Calculator, error) {
	promotions, err := NewPromotions(cfg.Promotions)
	if err != nil {
		return nil, fmt.Errorf("failed to compile promotions: %w", err)
	}
	return &Calculator{
		currency:      cfg.Currency,
		shippingFee:   cfg.ShippingFee,
		freeThreshold: cfg.FreeShippingThreshold,
		promotions:    promotions,
	}, nil
}

// Totals computes subtotal, discount, shipping and total of items.
// An empty promo code applies no discount; an unknown one is an error.
func (c *Calculator) Totals(items []domain.CheckoutItem, promoCode string) (domain.Totals, error) {
	t := domain.Totals{
		Subtotal: Subtotal(items),
		Currency: c.currency,
	}

	if promoCode != "" {
		discount, err := c.promotions.Discount(promoCode, items)
		if err != nil {
			return domain.Totals{}, err
		}
		t.Discount = discount
	}

	t.Shipping = c.shipping(items, t.Subtotal-t.Discount)
	t.Total = t.Subtotal - t.Discount + t.Shipping
	return t, nil
}

// shipping is free for empty orders and once the discounted subtotal reaches the threshold.
func (c *Calculator) shipping(items []domain.CheckoutItem, discounted int) int {
	if len(items) == 0 {
		return 0
	}
	if c.freeThreshold > 0 && discounted >= c.freeThreshold {
		return 0
	}
	return c.shippingFee
}

func (c *Calculator) Currency() string {
	return c.currency
}
