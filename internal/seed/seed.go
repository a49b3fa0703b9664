// Package seed loads catalog content (products, frame options and blog posts)
// from a YAML file into the repositories.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"frameshop/domain"
)

type File struct {
	Products []domain.Product `yaml:"products"`
	Options  []domain.Option  `yaml:"options"`
	Blogs    []domain.Blog    `yaml:"blogs"`
}

type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) error
}

type OptionWriter interface {
	Upsert(ctx context.Context, o domain.Option) error
}

type BlogWriter interface {
	Upsert(ctx context.Context, b domain.Blog) error
}

// Summary how many records of each kind were written.
type Summary struct {
	Products int
	Options  int
	Blogs    int
}

func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and checks a seed document. Unknown keys are rejected so a
// typo does not silently drop a price.
func Parse(data []byte) (File, error) {
	f := File{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if err := f.validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

func (f File) validate() error {
	ids := map[string]bool{}
	slugs := map[string]bool{}
	for _, p := range f.Products {
		if p.ID == "" || p.Slug == "" {
			return fmt.Errorf("product %q: id and slug are required", p.Name)
		}
		if ids[p.ID] || slugs[p.Slug] {
			return fmt.Errorf("product %q: duplicate id or slug", p.ID)
		}
		if p.BasePrice < 0 {
			return fmt.Errorf("product %q: negative base price", p.ID)
		}
		ids[p.ID], slugs[p.Slug] = true, true
	}

	options := map[string]bool{}
	for _, o := range f.Options {
		if !o.Kind.Valid() {
			return fmt.Errorf("option %q: unknown kind %q", o.ID, o.Kind)
		}
		key := string(o.Kind) + "/" + o.ID
		if o.ID == "" || options[key] {
			return fmt.Errorf("option %q: missing or duplicate id", key)
		}
		options[key] = true
	}

	blogs := map[string]bool{}
	for _, b := range f.Blogs {
		if b.Slug == "" || blogs[b.Slug] {
			return fmt.Errorf("blog %q: missing or duplicate slug", b.Title)
		}
		blogs[b.Slug] = true
	}
	return nil
}

// Apply upserts everything in f. Running it twice leaves the same state.
func Apply(ctx context.Context, f File, products ProductWriter, options OptionWriter, blogs BlogWriter) (Summary, error) {
	s := Summary{}
	for _, o := range f.Options {
		if err := options.Upsert(ctx, o); err != nil {
			return s, fmt.Errorf("failed to save option %s: %w", o.ID, err)
		}
		s.Options++
	}
	for _, p := range f.Products {
		if err := products.Upsert(ctx, p); err != nil {
			return s, fmt.Errorf("failed to save product %s: %w", p.ID, err)
		}
		s.Products++
	}
	for _, b := range f.Blogs {
		if err := blogs.Upsert(ctx, b); err != nil {
			return s, fmt.Errorf("failed to save blog %s: %w", b.Slug, err)
		}
		s.Blogs++
	}
	return s, nil
}
