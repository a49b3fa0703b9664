package models

import (
	"database/sql/driver"
	"encoding/json"

	"frameshop/domain"
)

type Product struct {
	ID   string         `db:"id"`
	Data domain.Product `db:"data"`
}

type Blog struct {
	Slug string      `db:"slug"`
	Data domain.Blog `db:"data"`
}

// Option options are stored as plain columns, attributes as JSONB.
type Option struct {
	ID            string     `db:"id"`
	Kind          string     `db:"kind"`
	Name          string     `db:"name"`
	PriceModifier int        `db:"price_modifier"`
	Position      int        `db:"position"`
	Attributes    Attributes `db:"attributes"`
}

func (o Option) Domain() domain.Option {
	return domain.Option{
		ID:            o.ID,
		Kind:          domain.OptionKind(o.Kind),
		Name:          o.Name,
		PriceModifier: o.PriceModifier,
		Position:      o.Position,
		Attributes:    o.Attributes,
	}
}

func OptionFromDomain(o domain.Option) Option {
	return Option{
		ID:            o.ID,
		Kind:          string(o.Kind),
		Name:          o.Name,
		PriceModifier: o.PriceModifier,
		Position:      o.Position,
		Attributes:    o.Attributes,
	}
}

type Attributes map[string]string

func (a *Attributes) Scan(dst interface{}) error {
	switch src := dst.(type) {
	case string:
		return json.Unmarshal([]byte(src), a)
	case []byte:
		return json.Unmarshal(src, a)
	case nil:
		*a = nil
		return nil
	}
	return domain.ErrConvertJSONB
}

func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return `{}`, nil
	}
	j, err := json.Marshal(a)
	if err != nil {
		return `{}`, err
	}
	return string(j), nil
}
