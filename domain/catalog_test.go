package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() []Option {
	return []Option{
		{ID: "walnut", Kind: KindMaterial, Name: "Walnut", PriceModifier: 1500, Position: 2},
		{ID: "oak", Kind: KindMaterial, Name: "Oak", PriceModifier: 1000, Position: 1},
		{ID: "30x40", Kind: KindSize, Name: "30x40", Position: 1},
		{ID: "black", Kind: KindFrameColor, Name: "Black", Position: 1},
		{ID: "wire", Kind: KindHangOption, Name: "Wire", Position: 1},
	}
}

func TestNewCatalogSortsByPosition(t *testing.T) {
	c, err := NewCatalog(testOptions())
	require.NoError(t, err)

	require.Len(t, c.Materials, 2)
	assert.Equal(t, "oak", c.Materials[0].ID)
	assert.Len(t, c.Sizes, 1)
	assert.Len(t, c.FrameColors, 1)
	assert.Len(t, c.HangOptions, 1)
}

func TestNewCatalogRejectsUnknownKind(t *testing.T) {
	_, err := NewCatalog([]Option{{ID: "x", Kind: "glass"}})
	assert.Error(t, err)
}

func TestCatalogLookupAndDefault(t *testing.T) {
	c, err := NewCatalog(testOptions())
	require.NoError(t, err)

	o, ok := c.Lookup(KindMaterial, "walnut")
	require.True(t, ok)
	assert.Equal(t, 1500, o.PriceModifier)

	_, ok = c.Lookup(KindMaterial, "")
	assert.False(t, ok)
	_, ok = c.Lookup(KindSize, "walnut")
	assert.False(t, ok)

	all := Product{}
	d, ok := c.Default(KindMaterial, all)
	require.True(t, ok)
	assert.Equal(t, "oak", d.ID)

	walnutOnly := Product{MaterialIDs: []string{"walnut"}}
	d, ok = c.Default(KindMaterial, walnutOnly)
	require.True(t, ok)
	assert.Equal(t, "walnut", d.ID)
	assert.Len(t, c.Allowed(KindMaterial, walnutOnly), 1)
}
