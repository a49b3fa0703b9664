// Package customizer holds the state of a shopper building one or more framed
// prints of a product: image, options, border, crop and quantity per frame.
package customizer

import (
	"fmt"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	"frameshop/domain"
	"frameshop/internal/pricing"
)

const DefaultMaxFrames = 20

// Customizer is not safe for concurrent use; Session serializes access.
type Customizer struct {
	product   domain.Product
	catalog   domain.Catalog
	maxFrames int

	frames []domain.Frame
	active int

	newID func() string
}

type Option func(*Customizer)

// WithMaxFrames limits how many frames one session may hold.
func WithMaxFrames(n int) Option {
	return func(c *Customizer) {
		if n > 0 {
			c.maxFrames = n
		}
	}
}

// WithIDGenerator replaces the frame id source, used by tests.
func WithIDGenerator(fn func() string) Option {
	return func(c *Customizer) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// New starts a customizer for product with a single default frame.
func New(product domain.Product, catalog domain.Catalog, opts ...Option) *Customizer {
	c := &Customizer{
		product:   product,
		catalog:   catalog,
		maxFrames: DefaultMaxFrames,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.frames = []domain.Frame{c.defaultFrame()}
	return c
}

func (c *Customizer) defaultFrame() domain.Frame {
	f := domain.Frame{
		ID:        c.newID(),
		ProductID: c.product.ID,
		Transform: domain.IdentityTransform(),
		Quantity:  1,
	}
	if o, ok := c.catalog.Default(domain.KindMaterial, c.product); ok {
		f.MaterialID = o.ID
	}
	if o, ok := c.catalog.Default(domain.KindSize, c.product); ok {
		f.SizeID = o.ID
	}
	if o, ok := c.catalog.Default(domain.KindFrameColor, c.product); ok {
		f.ColorID = o.ID
	}
	if o, ok := c.catalog.Default(domain.KindHangOption, c.product); ok {
		f.HangOptionID = o.ID
	}
	return f
}

// State snapshot of the customizer, safe to serialize and hand out.
type State struct {
	ProductID string         `json:"product_id"`
	Frames    []domain.Frame `json:"frames"`
	Active    int            `json:"active"`
}

func (c *Customizer) State() State {
	frames := make([]domain.Frame, len(c.frames))
	copy(frames, c.frames)
	return State{ProductID: c.product.ID, Frames: frames, Active: c.active}
}

func (c *Customizer) Product() domain.Product {
	return c.product
}

func (c *Customizer) Len() int {
	return len(c.frames)
}

func (c *Customizer) Active() int {
	return c.active
}

func (c *Customizer) Frame(i int) (domain.Frame, error) {
	if err := c.checkIndex(i); err != nil {
		return domain.Frame{}, err
	}
	return c.frames[i], nil
}

func (c *Customizer) checkIndex(i int) error {
	if i < 0 || i >= len(c.frames) {
		return fmt.Errorf("%w: %d of %d", ErrFrameIndex, i, len(c.frames))
	}
	return nil
}

// AddFrame appends a default frame and makes it active.
func (c *Customizer) AddFrame() (int, error) {
	if len(c.frames) >= c.maxFrames {
		return 0, fmt.Errorf("%w: limit is %d", ErrTooManyFrames, c.maxFrames)
	}
	c.frames = append(c.frames, c.defaultFrame())
	c.active = len(c.frames) - 1
	return c.active, nil
}

// DuplicateFrame copies frame i (with a new id) right after it and makes the copy active.
func (c *Customizer) DuplicateFrame(i int) (int, error) {
	if err := c.checkIndex(i); err != nil {
		return 0, err
	}
	if len(c.frames) >= c.maxFrames {
		return 0, fmt.Errorf("%w: limit is %d", ErrTooManyFrames, c.maxFrames)
	}

	dup := c.frames[i]
	dup.ID = c.newID()

	c.frames = append(c.frames, domain.Frame{})
	copy(c.frames[i+2:], c.frames[i+1:])
	c.frames[i+1] = dup
	c.active = i + 1
	return c.active, nil
}

// RemoveFrame deletes frame i. The collection never becomes empty: removing
// the only frame replaces it with a fresh default one.
func (c *Customizer) RemoveFrame(i int) error {
	if err := c.checkIndex(i); err != nil {
		return err
	}
	if len(c.frames) == 1 {
		c.frames[0] = c.defaultFrame()
		c.active = 0
		return nil
	}

	c.frames = append(c.frames[:i], c.frames[i+1:]...)
	switch {
	case c.active > i:
		c.active--
	case c.active >= len(c.frames):
		c.active = len(c.frames) - 1
	}
	return nil
}

func (c *Customizer) Select(i int) error {
	if err := c.checkIndex(i); err != nil {
		return err
	}
	c.active = i
	return nil
}

func (c *Customizer) SetImage(i int, url string) error {
	return c.update(i, func(f *domain.Frame) error {
		return setImage(f, url)
	})
}

func setImage(f *domain.Frame, url string) error {
	if url != "" && !govalidator.IsURL(url) {
		return fmt.Errorf("%w: %q", ErrInvalidImage, url)
	}
	if url != f.ImageURL {
		// a new photo starts uncropped
		f.Transform = domain.IdentityTransform()
	}
	f.ImageURL = url
	return nil
}

// SetOption selects option id of kind for frame i.
func (c *Customizer) SetOption(i int, kind domain.OptionKind, id string) error {
	return c.update(i, func(f *domain.Frame) error {
		return c.setOption(f, kind, id)
	})
}

func (c *Customizer) setOption(f *domain.Frame, kind domain.OptionKind, id string) error {
	if _, ok := c.catalog.Lookup(kind, id); !ok || !c.product.Allows(kind, id) {
		return fmt.Errorf("%w: %s %q", ErrUnknownOption, kind, id)
	}
	switch kind {
	case domain.KindMaterial:
		f.MaterialID = id
	case domain.KindSize:
		f.SizeID = id
	case domain.KindFrameColor:
		f.ColorID = id
	case domain.KindHangOption:
		f.HangOptionID = id
	}
	return nil
}

func (c *Customizer) SetMaterial(i int, id string) error {
	return c.SetOption(i, domain.KindMaterial, id)
}

func (c *Customizer) SetSize(i int, id string) error {
	return c.SetOption(i, domain.KindSize, id)
}

func (c *Customizer) SetColor(i int, id string) error {
	return c.SetOption(i, domain.KindFrameColor, id)
}

func (c *Customizer) SetHangOption(i int, id string) error {
	return c.SetOption(i, domain.KindHangOption, id)
}

func (c *Customizer) SetBorder(i int, b domain.Border) error {
	return c.update(i, func(f *domain.Frame) error {
		return setBorder(f, b)
	})
}

func setBorder(f *domain.Frame, b domain.Border) error {
	if b.WidthMM < 0 {
		return ErrInvalidBorder
	}
	if !b.Enabled {
		b.WidthMM = 0
	}
	f.Border = b
	return nil
}

func (c *Customizer) SetQuantity(i, q int) error {
	return c.update(i, func(f *domain.Frame) error {
		if !domain.ValidQuantity(q) {
			return ErrInvalidQuantity
		}
		f.Quantity = q
		return nil
	})
}

func (c *Customizer) Zoom(i int, zoom float64) error {
	return c.update(i, func(f *domain.Frame) error {
		f.Transform = ZoomTo(f.Transform, zoom)
		return nil
	})
}

func (c *Customizer) Pan(i int, dx, dy float64) error {
	return c.update(i, func(f *domain.Frame) error {
		f.Transform = PanBy(f.Transform, dx, dy)
		return nil
	})
}

func (c *Customizer) Rotate(i, quarterTurns int) error {
	return c.update(i, func(f *domain.Frame) error {
		f.Transform = RotateBy(f.Transform, quarterTurns)
		return nil
	})
}

func (c *Customizer) ResetTransform(i int) error {
	return c.update(i, func(f *domain.Frame) error {
		f.Transform = domain.IdentityTransform()
		return nil
	})
}

// update applies fn to a copy of frame i and stores it only when fn succeeds.
func (c *Customizer) update(i int, fn func(f *domain.Frame) error) error {
	if err := c.checkIndex(i); err != nil {
		return err
	}
	f := c.frames[i]
	if err := fn(&f); err != nil {
		return err
	}
	c.frames[i] = f
	return nil
}

// FramePrice price of a single frame of the collection.
type FramePrice struct {
	Index     int               `json:"index"`
	FrameID   string            `json:"frame_id"`
	Breakdown pricing.Breakdown `json:"breakdown"`
	Quantity  int               `json:"quantity"`
	LineTotal int               `json:"line_total"`
}

type Quote struct {
	Frames []FramePrice `json:"frames"`
	Total  int          `json:"total"`
}

// Price prices every frame of the collection.
func (c *Customizer) Price() Quote {
	q := Quote{Frames: make([]FramePrice, 0, len(c.frames))}
	for i, f := range c.frames {
		b := pricing.UnitPrice(c.product, c.catalog, f)
		line := pricing.LineTotal(b.Unit, f.Quantity)
		q.Frames = append(q.Frames, FramePrice{
			Index:     i,
			FrameID:   f.ID,
			Breakdown: b,
			Quantity:  f.Quantity,
			LineTotal: line,
		})
		q.Total += line
	}
	return q
}

// CheckoutItems turns every frame into a priced checkout item. Every frame
// needs an image first.
func (c *Customizer) CheckoutItems() ([]domain.CheckoutItem, error) {
	items := make([]domain.CheckoutItem, 0, len(c.frames))
	for i, f := range c.frames {
		if f.ImageURL == "" {
			return nil, &MissingImageError{Index: i}
		}
		items = append(items, pricing.Item(c.product, c.catalog, f))
	}
	return items, nil
}
