package domain

import (
	"fmt"
	"sort"
)

type OptionKind string

const (
	KindMaterial   OptionKind = "material"
	KindSize       OptionKind = "size"
	KindFrameColor OptionKind = "frame_color"
	KindHangOption OptionKind = "hang_option"
)

var OptionKinds = []OptionKind{KindMaterial, KindSize, KindFrameColor, KindHangOption}

func (k OptionKind) Valid() bool {
	for _, kind := range OptionKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Option a single selectable value of one customization dimension,
// e.g. the "Oak" material or the "30x40" size.
type Option struct {
	ID            string            `json:"id" yaml:"id"`
	Kind          OptionKind        `json:"kind" yaml:"kind"`
	Name          string            `json:"name" yaml:"name"`
	PriceModifier int               `json:"price_modifier" yaml:"price_modifier"`
	Position      int               `json:"position" yaml:"position"`
	Attributes    map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Catalog every option available in the shop, grouped by kind.
type Catalog struct {
	Materials   []Option `json:"materials"`
	Sizes       []Option `json:"sizes"`
	FrameColors []Option `json:"frame_colors"`
	HangOptions []Option `json:"hang_options"`
}

// NewCatalog groups options by kind and sorts each group by position.
// Options of unknown kinds are rejected.
func NewCatalog(options []Option) (Catalog, error) {
	var c Catalog
	for _, o := range options {
		switch o.Kind {
		case KindMaterial:
			c.Materials = append(c.Materials, o)
		case KindSize:
			c.Sizes = append(c.Sizes, o)
		case KindFrameColor:
			c.FrameColors = append(c.FrameColors, o)
		case KindHangOption:
			c.HangOptions = append(c.HangOptions, o)
		default:
			return Catalog{}, fmt.Errorf("option %q: unknown kind %q", o.ID, o.Kind)
		}
	}
	for _, group := range [][]Option{c.Materials, c.Sizes, c.FrameColors, c.HangOptions} {
		sortOptions(group)
	}
	return c, nil
}

func sortOptions(opts []Option) {
	sort.SliceStable(opts, func(i, j int) bool {
		if opts[i].Position != opts[j].Position {
			return opts[i].Position < opts[j].Position
		}
		return opts[i].ID < opts[j].ID
	})
}

// Options returns the group of the given kind.
func (c Catalog) Options(kind OptionKind) []Option {
	switch kind {
	case KindMaterial:
		return c.Materials
	case KindSize:
		return c.Sizes
	case KindFrameColor:
		return c.FrameColors
	case KindHangOption:
		return c.HangOptions
	}
	return nil
}

// Lookup finds an option by kind and id.
func (c Catalog) Lookup(kind OptionKind, id string) (Option, bool) {
	if id == "" {
		return Option{}, false
	}
	for _, o := range c.Options(kind) {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Default returns the first option of kind allowed by the product.
func (c Catalog) Default(kind OptionKind, p Product) (Option, bool) {
	for _, o := range c.Options(kind) {
		if p.Allows(kind, o.ID) {
			return o, true
		}
	}
	return Option{}, false
}

// Allowed filters the group of kind down to what the product offers.
func (c Catalog) Allowed(kind OptionKind, p Product) []Option {
	var res []Option
	for _, o := range c.Options(kind) {
		if p.Allows(kind, o.ID) {
			res = append(res, o)
		}
	}
	return res
}
