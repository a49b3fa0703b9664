package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"frameshop/domain"
	"frameshop/internal/config"
	"frameshop/internal/pagination"
	"frameshop/internal/repositories"
	"frameshop/internal/seed"
)

type orderStore interface {
	Create(ctx context.Context, order *domain.Order) (int64, error)
	Get(ctx context.Context, id string) (domain.Order, error)
	GetByTracking(ctx context.Context, tracking string) (domain.Order, error)
	Search(ctx context.Context, filter domain.OrderFilter, page, perPage int) ([]domain.Order, pagination.Page, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, note string) (domain.Order, bool, error)
	BulkUpdateStatus(ctx context.Context, ids []string, status domain.OrderStatus, note string) (domain.BulkResult, error)
	Stats(ctx context.Context) (domain.OrderStats, error)
}

type productStore interface {
	List(ctx context.Context, activeOnly bool) ([]domain.Product, error)
	Get(ctx context.Context, id string) (domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) error
}

type optionStore interface {
	Catalog(ctx context.Context) (domain.Catalog, error)
	Upsert(ctx context.Context, o domain.Option) error
}

type blogStore interface {
	ListPublished(ctx context.Context, page, perPage int) ([]domain.Blog, pagination.Page, error)
	GetBySlug(ctx context.Context, slug string) (domain.Blog, error)
	Upsert(ctx context.Context, b domain.Blog) error
}

// stores the repositories selected by storage.driver.
type stores struct {
	orders   orderStore
	products productStore
	options  optionStore
	blogs    blogStore

	db *sqlx.DB
}

func (s *stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func openDB(cfg config.PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	return db, nil
}

// openStores connects the configured backend. The memory backend is loaded
// from storage.seed_file when one is set.
func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.Storage.Driver == "memory" {
		s := &stores{
			orders:   repositories.NewMemoryOrderRepository(),
			products: repositories.NewMemoryProductRepository(),
			options:  repositories.NewMemoryOptionRepository(),
			blogs:    repositories.NewMemoryBlogRepository(),
		}
		if cfg.Storage.SeedFile != "" {
			if err := seedStores(ctx, s, cfg.Storage.SeedFile, logger); err != nil {
				return nil, err
			}
		}
		return s, nil
	}

	db, err := openDB(cfg.Postgres)
	if err != nil {
		return nil, err
	}
	s := &stores{db: db}

	if s.orders, err = repositories.NewOrderRepository(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if s.products, err = repositories.NewProductRepository(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if s.options, err = repositories.NewOptionRepository(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if s.blogs, err = repositories.NewBlogRepository(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func seedStores(ctx context.Context, s *stores, path string, logger *zap.Logger) error {
	f, err := seed.Load(path)
	if err != nil {
		return err
	}
	summary, err := seed.Apply(ctx, f, s.products, s.options, s.blogs)
	if err != nil {
		return fmt.Errorf("failed to seed %s: %w", path, err)
	}
	logger.Info("catalog seeded",
		zap.String("file", path),
		zap.Int("products", summary.Products),
		zap.Int("options", summary.Options),
		zap.Int("blogs", summary.Blogs))
	return nil
}
