package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"frameshop/domain"
	"frameshop/internal/models"
	"frameshop/internal/pagination"
)

type BlogRepository struct {
	db *sqlx.DB
}

func NewBlogRepository(ctx context.Context, db *sqlx.DB) (*BlogRepository, error) {
	b := &BlogRepository{db: db}
	if err := b.migrate(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *BlogRepository) migrate(ctx context.Context) error {
	const query = `create table if not exists public.blogs
(
    slug         varchar(128) primary key not null,
    published    boolean      not null default false,
    published_at timestamptz,
    data         jsonb default '{}'::jsonb not null
);`

	if _, err := b.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to migrate blogs: %w", err)
	}
	return nil
}

// ListPublished returns one page of published posts, newest first.
func (b *BlogRepository) ListPublished(ctx context.Context, page, perPage int) ([]domain.Blog, pagination.Page, error) {
	var total int
	if err := b.db.GetContext(ctx, &total, "SELECT count(*) FROM public.blogs WHERE published"); err != nil {
		return nil, pagination.Page{}, err
	}

	p := pagination.New(page, perPage, total)
	var rows []models.Blog
	err := b.db.SelectContext(ctx, &rows,
		"SELECT slug, data FROM public.blogs WHERE published ORDER BY published_at DESC NULLS LAST, slug LIMIT $1 OFFSET $2",
		p.Limit(), p.Offset)
	if err != nil {
		return nil, pagination.Page{}, err
	}

	blogs := make([]domain.Blog, 0, len(rows))
	for _, row := range rows {
		blogs = append(blogs, row.Data)
	}
	return blogs, p, nil
}

// GetBySlug returns a published post.
func (b *BlogRepository) GetBySlug(ctx context.Context, slug string) (domain.Blog, error) {
	row := models.Blog{}
	err := b.db.GetContext(ctx, &row, "SELECT slug, data FROM public.blogs WHERE slug=$1 AND published", slug)
	if err != nil {
		return domain.Blog{}, notFound(err)
	}
	return row.Data, nil
}

func (b *BlogRepository) Upsert(ctx context.Context, blog domain.Blog) error {
	const query = `INSERT INTO public.blogs (slug, published, published_at, data)
VALUES (:slug, :published, :published_at, :data)
ON CONFLICT (slug) DO UPDATE SET published = excluded.published, published_at = excluded.published_at, data = excluded.data`
	_, err := b.db.NamedExecContext(ctx, query, map[string]interface{}{
		"slug":         blog.Slug,
		"published":    blog.Published,
		"published_at": blog.PublishedAt,
		"data":         blog,
	})
	return err
}
