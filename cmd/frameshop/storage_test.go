package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"frameshop/internal/config"
)

func TestOpenMemoryStoresWithSeed(t *testing.T) {
	c := config.DefaultConfig()
	c.Storage.SeedFile = "../../catalog.yaml"

	st, err := openStores(context.Background(), c, zap.NewNop())
	require.NoError(t, err)
	defer st.Close()

	products, err := st.products.List(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, products, 2)

	catalog, err := st.options.Catalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, catalog.HangOptions, 2)
}

func TestExampleConfigLoads(t *testing.T) {
	c, err := config.Load("../../frameshop.yaml")
	require.NoError(t, err)
	assert.Len(t, c.Pricing.Promotions, 2)
}
