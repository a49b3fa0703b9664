package domain

import "errors"

const (
	MinZoom = 1.0
	MaxZoom = 5.0

	// MaxQuantity upper bound for the quantity of a single frame or cart line.
	MaxQuantity = 999
)

var ErrInvalidQuantity = errors.New("quantity must be between 1 and 999")

// ValidQuantity reports whether q can be ordered as is.
func ValidQuantity(q int) bool {
	return q >= 1 && q <= MaxQuantity
}

// ClampQuantity forces q into [1, MaxQuantity].
func ClampQuantity(q int) int {
	return min(max(q, 1), MaxQuantity)
}

// ImageTransform crop state of the photo inside a frame. Offsets are the top-left
// corner of the visible window relative to the image, in [0, 1-1/Zoom].
type ImageTransform struct {
	OffsetX  float64 `json:"offset_x"`
	OffsetY  float64 `json:"offset_y"`
	Zoom     float64 `json:"zoom"`
	Rotation int     `json:"rotation"`
}

// IdentityTransform shows the whole image unrotated.
func IdentityTransform() ImageTransform {
	return ImageTransform{Zoom: MinZoom}
}

type Border struct {
	Enabled bool `json:"enabled"`
	WidthMM int  `json:"width_mm,omitempty"`
}

// Frame one customized print in the customizer.
type Frame struct {
	ID           string         `json:"id"`
	ProductID    string         `json:"product_id"`
	ImageURL     string         `json:"image_url"`
	MaterialID   string         `json:"material_id"`
	SizeID       string         `json:"size_id"`
	ColorID      string         `json:"color_id"`
	HangOptionID string         `json:"hang_option_id"`
	Border       Border         `json:"border"`
	Transform    ImageTransform `json:"transform"`
	Quantity     int            `json:"quantity"`
}

// CheckoutItem a priced, resolved frame ready to be put in a cart or an order.
// Option names are copied so the order stays readable when the catalog changes.
type CheckoutItem struct {
	ID           string         `json:"id"`
	FrameID      string         `json:"frame_id,omitempty"`
	ProductID    string         `json:"product_id"`
	ProductName  string         `json:"product_name"`
	ImageURL     string         `json:"image_url"`
	MaterialID   string         `json:"material_id,omitempty"`
	Material     string         `json:"material,omitempty"`
	SizeID       string         `json:"size_id,omitempty"`
	Size         string         `json:"size,omitempty"`
	ColorID      string         `json:"color_id,omitempty"`
	Color        string         `json:"color,omitempty"`
	HangOptionID string         `json:"hang_option_id,omitempty"`
	HangOption   string         `json:"hang_option,omitempty"`
	Border       Border         `json:"border"`
	Transform    ImageTransform `json:"transform"`
	Quantity     int            `json:"quantity"`
	UnitPrice    int            `json:"unit_price"`
	LineTotal    int            `json:"line_total"`
}

// Frame rebuilds the frame configuration the item was made from.
func (i CheckoutItem) Frame() Frame {
	return Frame{
		ID:           i.FrameID,
		ProductID:    i.ProductID,
		ImageURL:     i.ImageURL,
		MaterialID:   i.MaterialID,
		SizeID:       i.SizeID,
		ColorID:      i.ColorID,
		HangOptionID: i.HangOptionID,
		Border:       i.Border,
		Transform:    i.Transform,
		Quantity:     i.Quantity,
	}
}

// SameConfiguration reports whether two items would print the same frame.
func (i CheckoutItem) SameConfiguration(o CheckoutItem) bool {
	return i.ProductID == o.ProductID &&
		i.ImageURL == o.ImageURL &&
		i.MaterialID == o.MaterialID &&
		i.SizeID == o.SizeID &&
		i.ColorID == o.ColorID &&
		i.HangOptionID == o.HangOptionID &&
		i.Border == o.Border &&
		i.Transform == o.Transform
}
