// Package pricing computes frame prices from a product base price and the
// additive modifiers of the selected options.
package pricing

import (
	"frameshop/domain"
)

// Breakdown shows where the unit price of a frame comes from.
type Breakdown struct {
	Base       int `json:"base"`
	Material   int `json:"material"`
	Size       int `json:"size"`
	Color      int `json:"color"`
	HangOption int `json:"hang_option"`
	Border     int `json:"border"`
	Unit       int `json:"unit"`
}

// UnitPrice sums the base price of the product and the modifiers of every
// selected option. Options that are unset or missing from the catalog add nothing.
func UnitPrice(p domain.Product, c domain.Catalog, f domain.Frame) Breakdown {
	b := Breakdown{
		Base:       p.BasePrice,
		Material:   modifier(c, domain.KindMaterial, f.MaterialID),
		Size:       modifier(c, domain.KindSize, f.SizeID),
		Color:      modifier(c, domain.KindFrameColor, f.ColorID),
		HangOption: modifier(c, domain.KindHangOption, f.HangOptionID),
	}
	if f.Border.Enabled {
		b.Border = p.BorderPrice
	}
	b.Unit = b.Base + b.Material + b.Size + b.Color + b.HangOption + b.Border
	if b.Unit < 0 {
		b.Unit = 0
	}
	return b
}

func modifier(c domain.Catalog, kind domain.OptionKind, id string) int {
	o, ok := c.Lookup(kind, id)
	if !ok {
		return 0
	}
	return o.PriceModifier
}

// LineTotal unit price times quantity, the quantity is clamped to
// [1, domain.MaxQuantity].
func LineTotal(unit, quantity int) int {
	return unit * domain.ClampQuantity(quantity)
}

// Item resolves a frame into a checkout item: option names are copied and
// prices are computed against the current catalog.
func Item(p domain.Product, c domain.Catalog, f domain.Frame) domain.CheckoutItem {
	b := UnitPrice(p, c, f)
	qty := domain.ClampQuantity(f.Quantity)
	return domain.CheckoutItem{
		FrameID:      f.ID,
		ProductID:    p.ID,
		ProductName:  p.Name,
		ImageURL:     f.ImageURL,
		MaterialID:   f.MaterialID,
		Material:     optionName(c, domain.KindMaterial, f.MaterialID),
		SizeID:       f.SizeID,
		Size:         optionName(c, domain.KindSize, f.SizeID),
		ColorID:      f.ColorID,
		Color:        optionName(c, domain.KindFrameColor, f.ColorID),
		HangOptionID: f.HangOptionID,
		HangOption:   optionName(c, domain.KindHangOption, f.HangOptionID),
		Border:       f.Border,
		Transform:    f.Transform,
		Quantity:     qty,
		UnitPrice:    b.Unit,
		LineTotal:    LineTotal(b.Unit, qty),
	}
}

func optionName(c domain.Catalog, kind domain.OptionKind, id string) string {
	o, _ := c.Lookup(kind, id)
	return o.Name
}

// Subtotal sum of line totals.
func Subtotal(items []domain.CheckoutItem) int {
	total := 0
	for _, item := range items {
		total += item.LineTotal
	}
	return total
}
