package domain

import (
	"database/sql/driver"
	"encoding/json"
)

// Product a frameable print product. Prices are in minor units.
// Empty option id lists mean every option of that kind is offered.
type Product struct {
	ID            string   `json:"id" yaml:"id"`
	Slug          string   `json:"slug" yaml:"slug"`
	Name          string   `json:"name" yaml:"name"`
	Description   string   `json:"description" yaml:"description"`
	ImageURL      string   `json:"image_url" yaml:"image_url"`
	BasePrice     int      `json:"base_price" yaml:"base_price"`
	BorderPrice   int      `json:"border_price" yaml:"border_price"`
	Active        bool     `json:"active" yaml:"active"`
	MaterialIDs   []string `json:"material_ids,omitempty" yaml:"material_ids,omitempty"`
	SizeIDs       []string `json:"size_ids,omitempty" yaml:"size_ids,omitempty"`
	ColorIDs      []string `json:"color_ids,omitempty" yaml:"color_ids,omitempty"`
	HangOptionIDs []string `json:"hang_option_ids,omitempty" yaml:"hang_option_ids,omitempty"`
}

func (p Product) allowList(kind OptionKind) []string {
	switch kind {
	case KindMaterial:
		return p.MaterialIDs
	case KindSize:
		return p.SizeIDs
	case KindFrameColor:
		return p.ColorIDs
	case KindHangOption:
		return p.HangOptionIDs
	}
	return nil
}

// Allows reports whether the option id of the given kind may be chosen for this product.
func (p Product) Allows(kind OptionKind, id string) bool {
	list := p.allowList(kind)
	if len(list) == 0 {
		return true
	}
	for _, allowed := range list {
		if allowed == id {
			return true
		}
	}
	return false
}

func (p *Product) Scan(dst interface{}) error {
	switch src := dst.(type) {
	case string:
		return json.Unmarshal([]byte(src), p)
	case []byte:
		return json.Unmarshal(src, p)
	case nil:
		return nil
	}
	return ErrConvertJSONB
}

func (p Product) Value() (driver.Value, error) {
	j, err := json.Marshal(p)
	if err != nil {
		return `{}`, err
	}
	return string(j), nil
}
