package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"frameshop/domain"
	"frameshop/internal/admin"
	"frameshop/internal/cart"
	"frameshop/internal/checkout"
	"frameshop/internal/customizer"
	"frameshop/internal/pagination"
)

// Cache holds orders shown on the tracking page, keyed by tracking number.
type Cache interface {
	Set(ctx context.Context, key string, value domain.Order, ttl time.Duration) error
	Get(ctx context.Context, key string) (domain.Order, bool, error)
	Has(ctx context.Context, key string) bool
}

type ProductRepository interface {
	List(ctx context.Context, activeOnly bool) ([]domain.Product, error)
	Get(ctx context.Context, id string) (domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (domain.Product, error)
}

type CatalogRepository interface {
	Catalog(ctx context.Context) (domain.Catalog, error)
}

type BlogRepository interface {
	ListPublished(ctx context.Context, page, perPage int) ([]domain.Blog, pagination.Page, error)
	GetBySlug(ctx context.Context, slug string) (domain.Blog, error)
}

type CheckoutService interface {
	Quote(ctx context.Context, items []domain.CheckoutItem, promoCode string) ([]domain.CheckoutItem, domain.Totals, error)
	Checkout(ctx context.Context, cartID string, req checkout.Request) (domain.Order, error)
	Track(ctx context.Context, tracking, email string) (domain.Order, error)
}

type AdminService interface {
	Search(ctx context.Context, filter domain.OrderFilter, page, perPage int) (admin.Listing, error)
	Get(ctx context.Context, id string) (domain.Order, error)
	Stats(ctx context.Context) (domain.OrderStats, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, note string) (domain.Order, error)
	BulkUpdateStatus(ctx context.Context, ids []string, status domain.OrderStatus, note string) (domain.BulkResult, error)
}

// Publisher pushes raw messages to the broker.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type Deps struct {
	Products ProductRepository
	Catalog  CatalogRepository
	Blogs    BlogRepository
	Carts    cart.Store
	Sessions *customizer.Store
	Checkout CheckoutService
	Admin    AdminService

	Cache    Cache
	CacheTTL time.Duration

	Publisher     Publisher
	IntakeSubject string

	MaxFrames int
	Logger    *zap.Logger
}

// Handler wraps the HTTP surface of the shop: storefront JSON API, the
// customizer, carts, checkout, tracking and the admin dashboard.
type Handler struct {
	products ProductRepository
	catalog  CatalogRepository
	blogs    BlogRepository
	carts    cart.Store
	sessions *customizer.Store
	checkout CheckoutService
	admin    AdminService

	cache    Cache
	cacheTTL time.Duration

	publisher     Publisher
	intakeSubject string

	maxFrames int
	logger    *zap.Logger
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		products:      d.Products,
		catalog:       d.Catalog,
		blogs:         d.Blogs,
		carts:         d.Carts,
		sessions:      d.Sessions,
		checkout:      d.Checkout,
		admin:         d.Admin,
		cache:         d.Cache,
		cacheTTL:      d.CacheTTL,
		publisher:     d.Publisher,
		intakeSubject: d.IntakeSubject,
		maxFrames:     d.MaxFrames,
		logger:        d.Logger,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.cacheTTL <= 0 {
		h.cacheTTL = time.Hour
	}
	return h
}

func (h *Handler) MountRoutes(app *fiber.App) {
	app.Get("/admin", h.adminPage)

	// example routes:
	// http://localhost:3000/api/v1/products
	// http://localhost:3000/api/v1/orders/track/7K2M9QX4PB?email=jane@example.com
	v1 := app.Group("/api/v1")

	v1.Get("/catalog", h.getCatalog)
	v1.Get("/products", h.listProducts)
	v1.Get("/products/:slug", h.getProduct)
	v1.Post("/quote", h.quote)

	c := v1.Group("/customizer")
	c.Post("/", h.createSession)
	c.Get("/:id", h.getSession)
	c.Post("/:id/frames", h.addFrame)
	c.Patch("/:id/frames/:index", h.updateFrame)
	c.Delete("/:id/frames/:index", h.removeFrame)
	c.Post("/:id/frames/:index/duplicate", h.duplicateFrame)
	c.Post("/:id/select/:index", h.selectFrame)
	c.Post("/:id/cart", h.addToCart)

	carts := v1.Group("/carts")
	carts.Post("/", h.createCart)
	carts.Get("/:id", h.getCart)
	carts.Patch("/:id/items/:item", h.updateCartItem)
	carts.Delete("/:id/items/:item", h.removeCartItem)
	carts.Post("/:id/checkout", h.checkoutCart)

	v1.Get("/orders/track/:tracking", h.track)
	v1.Post("/orders/publish", h.publish)

	v1.Get("/blogs", h.listBlogs)
	v1.Get("/blogs/:slug", h.getBlog)

	a := v1.Group("/admin")
	a.Get("/orders", h.adminOrders)
	a.Get("/orders/:id", h.adminOrder)
	a.Patch("/orders/:id/status", h.adminUpdateStatus)
	a.Post("/orders/bulk-status", h.adminBulkStatus)
	a.Get("/stats", h.adminStats)
}
