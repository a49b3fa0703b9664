package customizer

import (
	"frameshop/domain"
)

// Patch partial update of one frame. Nil fields are left untouched.
// Zoom, Pan and Rotate are applied in that order after the absolute fields.
type Patch struct {
	ImageURL     *string                `json:"image_url,omitempty"`
	MaterialID   *string                `json:"material_id,omitempty"`
	SizeID       *string                `json:"size_id,omitempty"`
	ColorID      *string                `json:"color_id,omitempty"`
	HangOptionID *string                `json:"hang_option_id,omitempty"`
	Border       *domain.Border         `json:"border,omitempty"`
	Quantity     *int                   `json:"quantity,omitempty"`
	Transform    *domain.ImageTransform `json:"transform,omitempty"`
	Zoom         *float64               `json:"zoom,omitempty"`
	Pan          *[2]float64            `json:"pan,omitempty"`
	Rotate       *int                   `json:"rotate,omitempty"`
	ResetCrop    bool                   `json:"reset_crop,omitempty"`
}

// Apply updates frame i with every field of p. Either the whole patch is
// applied or, on the first invalid field, nothing is.
func (c *Customizer) Apply(i int, p Patch) error {
	return c.update(i, func(f *domain.Frame) error {
		if p.ImageURL != nil {
			if err := setImage(f, *p.ImageURL); err != nil {
				return err
			}
		}

		options := []struct {
			kind domain.OptionKind
			id   *string
		}{
			{domain.KindMaterial, p.MaterialID},
			{domain.KindSize, p.SizeID},
			{domain.KindFrameColor, p.ColorID},
			{domain.KindHangOption, p.HangOptionID},
		}
		for _, o := range options {
			if o.id == nil {
				continue
			}
			if err := c.setOption(f, o.kind, *o.id); err != nil {
				return err
			}
		}

		if p.Border != nil {
			if err := setBorder(f, *p.Border); err != nil {
				return err
			}
		}
		if p.Quantity != nil {
			if !domain.ValidQuantity(*p.Quantity) {
				return ErrInvalidQuantity
			}
			f.Quantity = *p.Quantity
		}

		if p.ResetCrop {
			f.Transform = domain.IdentityTransform()
		}
		if p.Transform != nil {
			f.Transform = NormalizeTransform(*p.Transform)
		}
		if p.Zoom != nil {
			f.Transform = ZoomTo(f.Transform, *p.Zoom)
		}
		if p.Pan != nil {
			f.Transform = PanBy(f.Transform, p.Pan[0], p.Pan[1])
		}
		if p.Rotate != nil {
			f.Transform = RotateBy(f.Transform, *p.Rotate)
		}
		return nil
	})
}
