package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"frameshop/domain"
	"frameshop/internal/models"
)

// OptionRepository materials, sizes, frame colors and hang options in one table.
type OptionRepository struct {
	db *sqlx.DB
}

func NewOptionRepository(ctx context.Context, db *sqlx.DB) (*OptionRepository, error) {
	o := &OptionRepository{db: db}
	if err := o.migrate(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *OptionRepository) migrate(ctx context.Context) error {
	const query = `create table if not exists public.options
(
    kind           varchar(16)  not null,
    id             varchar(64)  not null,
    name           text         not null,
    price_modifier integer      not null default 0,
    position       integer      not null default 0,
    attributes     jsonb default '{}'::jsonb not null,
    primary key (kind, id)
);`

	if _, err := o.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to migrate options: %w", err)
	}
	return nil
}

// Catalog loads every option grouped by kind.
func (o *OptionRepository) Catalog(ctx context.Context) (domain.Catalog, error) {
	var rows []models.Option
	err := o.db.SelectContext(ctx, &rows,
		"SELECT id, kind, name, price_modifier, position, attributes FROM public.options ORDER BY kind, position, id")
	if err != nil {
		return domain.Catalog{}, err
	}

	options := make([]domain.Option, 0, len(rows))
	for _, row := range rows {
		options = append(options, row.Domain())
	}
	return domain.NewCatalog(options)
}

func (o *OptionRepository) Upsert(ctx context.Context, option domain.Option) error {
	if !option.Kind.Valid() {
		return fmt.Errorf("option %q: unknown kind %q", option.ID, option.Kind)
	}
	const query = `INSERT INTO public.options (kind, id, name, price_modifier, position, attributes)
VALUES (:kind, :id, :name, :price_modifier, :position, :attributes)
ON CONFLICT (kind, id) DO UPDATE SET name = excluded.name, price_modifier = excluded.price_modifier,
    position = excluded.position, attributes = excluded.attributes`
	_, err := o.db.NamedExecContext(ctx, query, models.OptionFromDomain(option))
	return err
}
