package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"frameshop/domain"
	"frameshop/internal/pagination"
)

// MemoryOrderRepository keeps orders in process memory. It backs the
// "memory" storage driver used for local runs and tests.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
	now    func() time.Time
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: map[string]domain.Order{}, now: time.Now}
}

func (m *MemoryOrderRepository) Create(_ context.Context, order *domain.Order) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[order.ID]; ok {
		return 0, fmt.Errorf("order %s already exists", order.ID)
	}
	for _, o := range m.orders {
		if o.TrackingNumber == order.TrackingNumber {
			return 0, fmt.Errorf("tracking number %s already exists", order.TrackingNumber)
		}
	}
	m.orders[order.ID] = *order
	return 1, nil
}

func (m *MemoryOrderRepository) Get(_ context.Context, id string) (domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, ErrNotFound
	}
	return o, nil
}

func (m *MemoryOrderRepository) GetByTracking(_ context.Context, tracking string) (domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, o := range m.orders {
		if o.TrackingNumber == tracking {
			return o, nil
		}
	}
	return domain.Order{}, ErrNotFound
}

func (m *MemoryOrderRepository) List(_ context.Context) ([]domain.Order, error) {
	m.mu.RLock()
	orders := make([]domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		orders = append(orders, o)
	}
	m.mu.RUnlock()

	sortNewestFirst(orders)
	return orders, nil
}

func sortNewestFirst(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID < orders[j].ID
	})
}

func (m *MemoryOrderRepository) matches(o domain.Order, f domain.OrderFilter) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && o.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !o.CreatedAt.Before(f.To) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	for _, field := range []string{o.ID, o.TrackingNumber, o.Customer.Email, o.Customer.Name} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func (m *MemoryOrderRepository) Search(_ context.Context, filter domain.OrderFilter, page, perPage int) ([]domain.Order, pagination.Page, error) {
	m.mu.RLock()
	var found []domain.Order
	for _, o := range m.orders {
		if m.matches(o, filter) {
			found = append(found, o)
		}
	}
	m.mu.RUnlock()

	sortNewestFirst(found)

	p := pagination.New(page, perPage, len(found))
	end := p.Offset + p.Limit()
	if end > len(found) {
		end = len(found)
	}
	res := make([]domain.Order, 0, end-p.Offset)
	if p.Offset < len(found) {
		res = append(res, found[p.Offset:end]...)
	}
	return res, p, nil
}

// UpdateStatus reports whether the order actually moved; asking for the
// status it already has changes nothing.
func (m *MemoryOrderRepository) UpdateStatus(_ context.Context, id string, status domain.OrderStatus, note string) (domain.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, false, ErrNotFound
	}
	if o.Status == status {
		return o, false, nil
	}
	o.History = append([]domain.StatusChange(nil), o.History...)
	if err := o.Transition(status, note, m.now().UTC()); err != nil {
		return domain.Order{}, false, err
	}
	m.orders[id] = o
	return o, true, nil
}

func (m *MemoryOrderRepository) BulkUpdateStatus(ctx context.Context, ids []string, status domain.OrderStatus, note string) (domain.BulkResult, error) {
	res := newBulkResult()
	for _, id := range ids {
		_, changed, err := m.UpdateStatus(ctx, id, status, note)
		switch {
		case err != nil:
			res.Failed = append(res.Failed, domain.BulkFailure{ID: id, Reason: err.Error()})
		case changed:
			res.Updated = append(res.Updated, id)
		default:
			res.Unchanged = append(res.Unchanged, id)
		}
	}
	return res, nil
}

func (m *MemoryOrderRepository) Stats(_ context.Context) (domain.OrderStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := domain.OrderStats{Counts: make(map[domain.OrderStatus]int, len(domain.Statuses))}
	for _, st := range domain.Statuses {
		stats.Counts[st] = 0
	}
	for _, o := range m.orders {
		stats.Counts[o.Status]++
		stats.Total++
		if o.Status != domain.StatusCancelled && o.Status != domain.StatusRefunded {
			stats.Revenue += o.Totals.Total
		}
	}
	return stats, nil
}

// MemoryProductRepository products in memory.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{products: map[string]domain.Product{}}
}

func (m *MemoryProductRepository) List(_ context.Context, activeOnly bool) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		if activeOnly && !p.Active {
			continue
		}
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Name != res[j].Name {
			return res[i].Name < res[j].Name
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

func (m *MemoryProductRepository) Get(_ context.Context, id string) (domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryProductRepository) GetBySlug(_ context.Context, slug string) (domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return domain.Product{}, ErrNotFound
}

func (m *MemoryProductRepository) Upsert(_ context.Context, p domain.Product) error {
	m.mu.Lock()
	m.products[p.ID] = p
	m.mu.Unlock()
	return nil
}

// MemoryOptionRepository catalog options in memory.
type MemoryOptionRepository struct {
	mu      sync.RWMutex
	options map[string]domain.Option
}

func NewMemoryOptionRepository() *MemoryOptionRepository {
	return &MemoryOptionRepository{options: map[string]domain.Option{}}
}

func (m *MemoryOptionRepository) Catalog(_ context.Context) (domain.Catalog, error) {
	m.mu.RLock()
	options := make([]domain.Option, 0, len(m.options))
	for _, o := range m.options {
		options = append(options, o)
	}
	m.mu.RUnlock()
	return domain.NewCatalog(options)
}

func (m *MemoryOptionRepository) Upsert(_ context.Context, o domain.Option) error {
	if !o.Kind.Valid() {
		return fmt.Errorf("option %q: unknown kind %q", o.ID, o.Kind)
	}
	m.mu.Lock()
	m.options[string(o.Kind)+"/"+o.ID] = o
	m.mu.Unlock()
	return nil
}

// MemoryBlogRepository blog posts in memory.
type MemoryBlogRepository struct {
	mu    sync.RWMutex
	blogs map[string]domain.Blog
}

func NewMemoryBlogRepository() *MemoryBlogRepository {
	return &MemoryBlogRepository{blogs: map[string]domain.Blog{}}
}

func (m *MemoryBlogRepository) ListPublished(_ context.Context, page, perPage int) ([]domain.Blog, pagination.Page, error) {
	m.mu.RLock()
	var published []domain.Blog
	for _, b := range m.blogs {
		if b.Published {
			published = append(published, b)
		}
	}
	m.mu.RUnlock()

	sort.Slice(published, func(i, j int) bool {
		a, b := published[i].PublishedAt, published[j].PublishedAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return published[i].Slug < published[j].Slug
	})

	p := pagination.New(page, perPage, len(published))
	end := p.Offset + p.Limit()
	if end > len(published) {
		end = len(published)
	}
	res := []domain.Blog{}
	if p.Offset < len(published) {
		res = append(res, published[p.Offset:end]...)
	}
	return res, p, nil
}

func (m *MemoryBlogRepository) GetBySlug(_ context.Context, slug string) (domain.Blog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.blogs[slug]
	if !ok || !b.Published {
		return domain.Blog{}, ErrNotFound
	}
	return b, nil
}

func (m *MemoryBlogRepository) Upsert(_ context.Context, b domain.Blog) error {
	m.mu.Lock()
	m.blogs[b.Slug] = b
	m.mu.Unlock()
	return nil
}
