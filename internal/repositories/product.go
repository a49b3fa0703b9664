package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"frameshop/domain"
	"frameshop/internal/models"
)

type ProductRepository struct {
	db *sqlx.DB
}

func NewProductRepository(ctx context.Context, db *sqlx.DB) (*ProductRepository, error) {
	p := &ProductRepository{db: db}
	if err := p.migrate(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *ProductRepository) migrate(ctx context.Context) error {
	const query = `create table if not exists public.products
(
    id     varchar(64) primary key not null,
    slug   varchar(128)            not null,
    active boolean                 not null default true,
    data   jsonb default '{}'::jsonb not null
);

create unique index if not exists uq_products_slug
    on public.products (slug);`

	if _, err := p.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to migrate products: %w", err)
	}
	return nil
}

// List returns products ordered by name, only active ones when activeOnly is set.
func (p *ProductRepository) List(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	query := "SELECT id, data FROM public.products"
	if activeOnly {
		query += " WHERE active"
	}
	query += " ORDER BY data->>'name', id"

	var rows []models.Product
	if err := p.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.Data)
	}
	return products, nil
}

func (p *ProductRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	row := models.Product{}
	if err := p.db.GetContext(ctx, &row, "SELECT id, data FROM public.products WHERE id=$1", id); err != nil {
		return domain.Product{}, notFound(err)
	}
	return row.Data, nil
}

func (p *ProductRepository) GetBySlug(ctx context.Context, slug string) (domain.Product, error) {
	row := models.Product{}
	if err := p.db.GetContext(ctx, &row, "SELECT id, data FROM public.products WHERE slug=$1", slug); err != nil {
		return domain.Product{}, notFound(err)
	}
	return row.Data, nil
}

func (p *ProductRepository) Upsert(ctx context.Context, product domain.Product) error {
	const query = `INSERT INTO public.products (id, slug, active, data) VALUES (:id, :slug, :active, :data)
ON CONFLICT (id) DO UPDATE SET slug = excluded.slug, active = excluded.active, data = excluded.data`
	_, err := p.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":     product.ID,
		"slug":   product.Slug,
		"active": product.Active,
		"data":   product,
	})
	return err
}
