package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frameshop/domain"
)

func seedMemoryOrders(t *testing.T, repo *MemoryOrderRepository, n int) []domain.Order {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var orders []domain.Order
	for i := 0; i < n; i++ {
		o := domain.Order{
			ID:             fmt.Sprintf("o-%02d", i),
			TrackingNumber: fmt.Sprintf("T%02d", i),
			Status:         domain.StatusPending,
			Customer:       domain.Customer{Name: fmt.Sprintf("Customer %d", i), Email: fmt.Sprintf("c%d@example.com", i)},
			Totals:         domain.Totals{Total: 1000},
			CreatedAt:      base.AddDate(0, 0, i),
		}
		_, err := repo.Create(context.Background(), &o)
		require.NoError(t, err)
		orders = append(orders, o)
	}
	return orders
}

func TestMemoryOrderSearch(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOrderRepository()
	seedMemoryOrders(t, repo, 25)

	found, page, err := repo.Search(ctx, domain.OrderFilter{}, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	require.Len(t, found, 5)
	assert.Equal(t, "o-04", found[0].ID, "newest first")

	found, page, err = repo.Search(ctx, domain.OrderFilter{Query: "C1@EXAMPLE"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "o-01", found[0].ID)

	from := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	_, page, err = repo.Search(ctx, domain.OrderFilter{From: from, To: from.AddDate(0, 0, 5)}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 25)
}

func TestMemoryOrderCreateRejectsDuplicates(t *testing.T) {
	repo := NewMemoryOrderRepository()
	orders := seedMemoryOrders(t, repo, 1)

	dup := orders[0]
	_, err := repo.Create(context.Background(), &dup)
	assert.Error(t, err)

	dup.ID = "other"
	_, err = repo.Create(context.Background(), &dup)
	assert.Error(t, err, "tracking number must be unique")
}

func TestMemoryOrderStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOrderRepository()
	seedMemoryOrders(t, repo, 3)

	o, changed, err := repo.UpdateStatus(ctx, "o-00", domain.StatusPaid, "")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.StatusPaid, o.Status)

	o, changed, err = repo.UpdateStatus(ctx, "o-00", domain.StatusPaid, "again")
	require.NoError(t, err)
	assert.False(t, changed, "same status is a no-op")
	assert.Len(t, o.History, 1)

	res, err := repo.BulkUpdateStatus(ctx, []string{"o-00", "o-01", "nope"}, domain.StatusProcessing, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"o-00"}, res.Updated)
	assert.Empty(t, res.Unchanged)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, "o-01", res.Failed[0].ID)
	assert.Equal(t, ErrNotFound.Error(), res.Failed[1].Reason)

	_, _, err = repo.UpdateStatus(ctx, "o-02", domain.StatusCancelled, "")
	require.NoError(t, err)

	res, err = repo.BulkUpdateStatus(ctx, []string{"o-00"}, domain.StatusProcessing, "")
	require.NoError(t, err)
	assert.Empty(t, res.Updated)
	assert.Equal(t, []string{"o-00"}, res.Unchanged)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Counts[domain.StatusProcessing])
	assert.Equal(t, 1, stats.Counts[domain.StatusPending])
	assert.Equal(t, 2000, stats.Revenue)
}

func TestMemoryBlogs(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBlogRepository()
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.AddDate(0, 1, 0)

	require.NoError(t, repo.Upsert(ctx, domain.Blog{Slug: "old", Published: true, PublishedAt: &older}))
	require.NoError(t, repo.Upsert(ctx, domain.Blog{Slug: "new", Published: true, PublishedAt: &newer}))
	require.NoError(t, repo.Upsert(ctx, domain.Blog{Slug: "draft"}))

	blogs, page, err := repo.ListPublished(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, "new", blogs[0].Slug)

	_, err = repo.GetBySlug(ctx, "draft")
	assert.ErrorIs(t, err, ErrNotFound)
}
