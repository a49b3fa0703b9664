package customizer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frameshop/domain"
)

const photo = "https://cdn.example.com/photos/beach.jpg"

func testCatalog(t *testing.T) domain.Catalog {
	t.Helper()
	c, err := domain.NewCatalog([]domain.Option{
		{ID: "oak", Kind: domain.KindMaterial, Name: "Oak", PriceModifier: 1000, Position: 1},
		{ID: "walnut", Kind: domain.KindMaterial, Name: "Walnut", PriceModifier: 2500, Position: 2},
		{ID: "a4", Kind: domain.KindSize, Name: "A4", PriceModifier: 0, Position: 1},
		{ID: "a2", Kind: domain.KindSize, Name: "A2", PriceModifier: 3000, Position: 2},
		{ID: "black", Kind: domain.KindFrameColor, Name: "Black", Position: 1},
		{ID: "white", Kind: domain.KindFrameColor, Name: "White", Position: 2},
		{ID: "hook", Kind: domain.KindHangOption, Name: "Hook", PriceModifier: 200, Position: 1},
	})
	require.NoError(t, err)
	return c
}

var testProduct = domain.Product{
	ID:          "classic",
	Name:        "Classic frame",
	BasePrice:   4000,
	BorderPrice: 500,
	ColorIDs:    []string{"black", "white"},
	SizeIDs:     []string{"a4"},
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("f%d", n)
	}
}

func newTestCustomizer(t *testing.T, opts ...Option) *Customizer {
	t.Helper()
	opts = append([]Option{WithIDGenerator(sequentialIDs())}, opts...)
	return New(testProduct, testCatalog(t), opts...)
}

func TestNewStartsWithDefaultFrame(t *testing.T) {
	c := newTestCustomizer(t)

	require.Equal(t, 1, c.Len())
	f, err := c.Frame(0)
	require.NoError(t, err)

	assert.Equal(t, domain.Frame{
		ID:           "f1",
		ProductID:    "classic",
		MaterialID:   "oak",
		SizeID:       "a4",
		ColorID:      "black",
		HangOptionID: "hook",
		Transform:    domain.IdentityTransform(),
		Quantity:     1,
	}, f)
}

func TestAddSelectRemove(t *testing.T) {
	c := newTestCustomizer(t)

	i, err := c.AddFrame()
	require.NoError(t, err)
	assert.Equal(t, 1, i)
	assert.Equal(t, 1, c.Active())

	_, err = c.AddFrame()
	require.NoError(t, err)
	require.NoError(t, c.Select(1))

	// removing a frame before the active one shifts the active index
	require.NoError(t, c.RemoveFrame(0))
	assert.Equal(t, 0, c.Active())
	assert.Equal(t, 2, c.Len())

	// removing the active last frame moves to the new last frame
	require.NoError(t, c.Select(1))
	require.NoError(t, c.RemoveFrame(1))
	assert.Equal(t, 0, c.Active())

	assert.ErrorIs(t, c.Select(5), ErrFrameIndex)
	assert.ErrorIs(t, c.RemoveFrame(-1), ErrFrameIndex)
}

func TestRemoveOnlyFrameResetsIt(t *testing.T) {
	c := newTestCustomizer(t)
	require.NoError(t, c.SetImage(0, photo))

	require.NoError(t, c.RemoveFrame(0))
	assert.Equal(t, 1, c.Len())

	f, _ := c.Frame(0)
	assert.Empty(t, f.ImageURL)
	assert.Equal(t, "f2", f.ID)
}

func TestMaxFrames(t *testing.T) {
	c := newTestCustomizer(t, WithMaxFrames(2))
	_, err := c.AddFrame()
	require.NoError(t, err)

	_, err = c.AddFrame()
	assert.ErrorIs(t, err, ErrTooManyFrames)
	_, err = c.DuplicateFrame(0)
	assert.ErrorIs(t, err, ErrTooManyFrames)
}

func TestDuplicateFrame(t *testing.T) {
	c := newTestCustomizer(t)
	_, _ = c.AddFrame()
	require.NoError(t, c.SetMaterial(0, "walnut"))
	require.NoError(t, c.SetQuantity(0, 3))

	i, err := c.DuplicateFrame(0)
	require.NoError(t, err)
	assert.Equal(t, 1, i)
	assert.Equal(t, 3, c.Len())

	orig, _ := c.Frame(0)
	dup, _ := c.Frame(1)
	assert.NotEqual(t, orig.ID, dup.ID)
	assert.Equal(t, "walnut", dup.MaterialID)
	assert.Equal(t, 3, dup.Quantity)

	last, _ := c.Frame(2)
	assert.Equal(t, "f2", last.ID)
}

func TestSetOptionValidation(t *testing.T) {
	c := newTestCustomizer(t)

	require.NoError(t, c.SetColor(0, "white"))
	assert.ErrorIs(t, c.SetSize(0, "a2"), ErrUnknownOption, "not allowed by product")
	assert.ErrorIs(t, c.SetMaterial(0, "plastic"), ErrUnknownOption)
	assert.ErrorIs(t, c.SetHangOption(0, "black"), ErrUnknownOption, "wrong kind")

	f, _ := c.Frame(0)
	assert.Equal(t, "white", f.ColorID)
	assert.Equal(t, "a4", f.SizeID)
}

func TestSetImage(t *testing.T) {
	c := newTestCustomizer(t)
	require.NoError(t, c.Zoom(0, 2))

	require.NoError(t, c.SetImage(0, photo))
	f, _ := c.Frame(0)
	assert.Equal(t, photo, f.ImageURL)
	assert.Equal(t, domain.IdentityTransform(), f.Transform, "new image resets crop")

	assert.ErrorIs(t, c.SetImage(0, "not a url"), ErrInvalidImage)
}

func TestSetBorderAndQuantity(t *testing.T) {
	c := newTestCustomizer(t)

	require.NoError(t, c.SetBorder(0, domain.Border{Enabled: true, WidthMM: 20}))
	require.NoError(t, c.SetBorder(0, domain.Border{Enabled: false, WidthMM: 20}))
	f, _ := c.Frame(0)
	assert.Equal(t, domain.Border{}, f.Border)

	assert.ErrorIs(t, c.SetBorder(0, domain.Border{Enabled: true, WidthMM: -1}), ErrInvalidBorder)
	assert.ErrorIs(t, c.SetQuantity(0, 0), ErrInvalidQuantity)
}

func TestQuantityUpperBound(t *testing.T) {
	c := newTestCustomizer(t)

	assert.ErrorIs(t, c.SetQuantity(0, 1<<62), ErrInvalidQuantity)
	assert.ErrorIs(t, c.SetQuantity(0, domain.MaxQuantity+1), ErrInvalidQuantity)
	huge := 1 << 62
	assert.ErrorIs(t, c.Apply(0, Patch{Quantity: &huge}), ErrInvalidQuantity)

	f, _ := c.Frame(0)
	assert.Equal(t, 1, f.Quantity)
	assert.Positive(t, c.Price().Total)

	require.NoError(t, c.SetQuantity(0, domain.MaxQuantity))
	q := c.Price()
	assert.Equal(t, domain.MaxQuantity*q.Frames[0].Breakdown.Unit, q.Frames[0].LineTotal)
}

func TestPrice(t *testing.T) {
	c := newTestCustomizer(t)
	require.NoError(t, c.SetBorder(0, domain.Border{Enabled: true, WidthMM: 10}))
	require.NoError(t, c.SetQuantity(0, 2))

	_, _ = c.AddFrame()
	require.NoError(t, c.SetMaterial(1, "walnut"))

	q := c.Price()
	require.Len(t, q.Frames, 2)
	// 4000 base + 1000 oak + 200 hook + 500 border
	assert.Equal(t, 5700, q.Frames[0].Breakdown.Unit)
	assert.Equal(t, 11400, q.Frames[0].LineTotal)
	// 4000 base + 2500 walnut + 200 hook
	assert.Equal(t, 6700, q.Frames[1].LineTotal)
	assert.Equal(t, 18100, q.Total)
}

func TestCheckoutItemsRequireImages(t *testing.T) {
	c := newTestCustomizer(t)
	require.NoError(t, c.SetImage(0, photo))
	_, _ = c.AddFrame()

	_, err := c.CheckoutItems()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingImage))
	var missing *MissingImageError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 1, missing.Index)

	require.NoError(t, c.SetImage(1, photo))
	items, err := c.CheckoutItems()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Oak", items[0].Material)
	assert.Equal(t, 5200, items[0].UnitPrice)
	assert.Equal(t, "f1", items[0].FrameID)
}

func TestApplyIsAtomic(t *testing.T) {
	c := newTestCustomizer(t)
	bad := "plastic"
	url := photo
	qty := 4

	err := c.Apply(0, Patch{ImageURL: &url, Quantity: &qty, MaterialID: &bad})
	assert.ErrorIs(t, err, ErrUnknownOption)

	f, _ := c.Frame(0)
	assert.Empty(t, f.ImageURL)
	assert.Equal(t, 1, f.Quantity)

	walnut := "walnut"
	zoom := 2.0
	rotate := -1
	require.NoError(t, c.Apply(0, Patch{
		ImageURL:   &url,
		MaterialID: &walnut,
		Quantity:   &qty,
		Zoom:       &zoom,
		Pan:        &[2]float64{0.5, -0.5},
		Rotate:     &rotate,
	}))
	f, _ = c.Frame(0)
	assert.Equal(t, "walnut", f.MaterialID)
	assert.Equal(t, 4, f.Quantity)
	assert.Equal(t, 2.0, f.Transform.Zoom)
	assert.Equal(t, 270, f.Transform.Rotation)
	assert.InDelta(t, 0.5, f.Transform.OffsetX, 1e-9)
	assert.InDelta(t, 0.0, f.Transform.OffsetY, 1e-9)
}

func TestStateIsACopy(t *testing.T) {
	c := newTestCustomizer(t)
	st := c.State()
	st.Frames[0].Quantity = 99

	f, _ := c.Frame(0)
	assert.Equal(t, 1, f.Quantity)
	assert.Equal(t, "classic", st.ProductID)
}
