package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"frameshop/domain"
)

var ErrUnknownPromotion = errors.New("unknown promotion code")

// Promotion a promo code whose discount is an expr rule, for example
//
//	subtotal >= 10000 ? percent(15) : 0
//
// The rule sees subtotal, quantity, items and code and returns a discount in minor units.
type Promotion struct {
	Code        string `yaml:"code" json:"code"`
	Rule        string `yaml:"rule" json:"rule"`
	Description string `yaml:"description" json:"description"`
}

type compiledPromotion struct {
	Promotion
	program *vm.Program
}

// Promotions compiled promo rules keyed by normalized code.
type Promotions struct {
	byCode map[string]compiledPromotion
}

// NewPromotions compiles every rule up front so a broken rule fails at startup.
func NewPromotions(list []Promotion) (*Promotions, error) {
	p := &Promotions{byCode: make(map[string]compiledPromotion, len(list))}
	for _, promo := range list {
		code := normalizeCode(promo.Code)
		if code == "" {
			return nil, errors.New("promotion code must not be empty")
		}
		if _, dup := p.byCode[code]; dup {
			return nil, fmt.Errorf("duplicate promotion code %q", code)
		}
		program, err := expr.Compile(promo.Rule, expr.Env(ruleEnv("", 0, 0, 0)))
		if err != nil {
			return nil, fmt.Errorf("promotion %s: %w", code, err)
		}
		p.byCode[code] = compiledPromotion{Promotion: promo, program: program}
	}
	return p, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func ruleEnv(code string, subtotal, quantity, items int) map[string]any {
	return map[string]any{
		"code":     code,
		"subtotal": subtotal,
		"quantity": quantity,
		"items":    items,
		"percent": func(n any) float64 {
			return float64(subtotal) * toFloat(n) / 100
		},
	}
}

// Lookup returns the promotion registered under code.
func (p *Promotions) Lookup(code string) (Promotion, bool) {
	promo, ok := p.byCode[normalizeCode(code)]
	return promo.Promotion, ok
}

// Discount evaluates the rule of code against items. The result is rounded to
// whole minor units and clamped to [0, subtotal].
func (p *Promotions) Discount(code string, items []domain.CheckoutItem) (int, error) {
	code = normalizeCode(code)
	promo, ok := p.byCode[code]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPromotion, code)
	}

	subtotal := Subtotal(items)
	quantity := 0
	for _, item := range items {
		quantity += item.Quantity
	}

	out, err := expr.Run(promo.program, ruleEnv(code, subtotal, quantity, len(items)))
	if err != nil {
		return 0, fmt.Errorf("promotion %s: %w", code, err)
	}

	var discount int
	switch v := out.(type) {
	case int:
		discount = v
	case int64:
		discount = int(v)
	case float64:
		discount = int(math.Round(v))
	case nil:
		discount = 0
	default:
		return 0, fmt.Errorf("promotion %s: rule returned %T, want a number", code, out)
	}

	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount, nil
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}
