package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"frameshop/domain"
	"frameshop/internal/admin"
	"frameshop/internal/cart"
	"frameshop/internal/checkout"
	"frameshop/internal/customizer"
	"frameshop/internal/pricing"
	"frameshop/internal/repositories"
	"frameshop/pkg/cache"
)

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	messages [][]byte
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	f.messages = append(f.messages, data)
	return nil
}

type fixture struct {
	app       *fiber.App
	orders    *repositories.MemoryOrderRepository
	publisher *fakePublisher
}

func newFixture(t *testing.T, templates string) *fixture {
	t.Helper()
	ctx := context.Background()

	products := repositories.NewMemoryProductRepository()
	require.NoError(t, products.Upsert(ctx, domain.Product{ID: "p1", Slug: "classic", Name: "Classic", BasePrice: 2000, BorderPrice: 300, Active: true}))
	require.NoError(t, products.Upsert(ctx, domain.Product{ID: "p2", Slug: "retired", Name: "Retired", BasePrice: 1000}))

	options := repositories.NewMemoryOptionRepository()
	for _, o := range []domain.Option{
		{ID: "m-paper", Kind: domain.KindMaterial, Name: "Paper"},
		{ID: "m-canvas", Kind: domain.KindMaterial, Name: "Canvas", PriceModifier: 1500, Position: 1},
		{ID: "s-small", Kind: domain.KindSize, Name: "20x30"},
		{ID: "s-large", Kind: domain.KindSize, Name: "50x70", PriceModifier: 2500, Position: 1},
		{ID: "c-black", Kind: domain.KindFrameColor, Name: "Black"},
		{ID: "h-none", Kind: domain.KindHangOption, Name: "None"},
	} {
		require.NoError(t, options.Upsert(ctx, o))
	}

	blogs := repositories.NewMemoryBlogRepository()
	published := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, blogs.Upsert(ctx, domain.Blog{Slug: "hanging-tips", Title: "Hanging tips", Published: true, PublishedAt: &published}))
	require.NoError(t, blogs.Upsert(ctx, domain.Blog{Slug: "draft", Title: "Draft"}))

	calc, err := pricing.NewCalculator(pricing.Config{
		Currency:              "EUR",
		ShippingFee:           500,
		FreeShippingThreshold: 10000,
		Promotions:            []pricing.Promotion{{Code: "WELCOME", Rule: "percent(10)"}},
	})
	require.NoError(t, err)
	tracking, err := checkout.NewTrackingGenerator("test", 8)
	require.NoError(t, err)

	orders := repositories.NewMemoryOrderRepository()
	carts := cart.NewMemoryStore()
	publisher := &fakePublisher{}
	orderCache := cache.NewInMemory[domain.Order]()

	co := checkout.NewService(checkout.Deps{
		Carts:         carts,
		Orders:        orders,
		Products:      products,
		Catalog:       options,
		Calculator:    calc,
		Tracking:      tracking,
		Publisher:     publisher,
		EventsSubject: "orders.events",
	})

	app := NewApp(templates, "test", zap.NewNop())
	NewHandler(Deps{
		Products:      products,
		Catalog:       options,
		Blogs:         blogs,
		Carts:         carts,
		Sessions:      customizer.NewStore(cache.NewInMemory[*customizer.Session](), time.Hour),
		Checkout:      co,
		Admin:         admin.NewService(orders, orderCache, nil, nil),
		Cache:         orderCache,
		CacheTTL:      time.Hour,
		Publisher:     publisher,
		IntakeSubject: "orders.intake",
		MaxFrames:     3,
	}).MountRoutes(app)

	return &fixture{app: app, orders: orders, publisher: publisher}
}

// call sends a JSON request and decodes the JSON answer.
func (f *fixture) call(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func num(v interface{}) int {
	f, _ := v.(float64)
	return int(f)
}

func quoteTotal(body map[string]interface{}) int {
	return num(body["quote"].(map[string]interface{})["total"])
}

func TestProducts(t *testing.T) {
	f := newFixture(t, "")

	status, body := f.call(t, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["products"], 1, "inactive products are hidden")

	status, body = f.call(t, http.MethodGet, "/api/v1/products/classic", nil)
	require.Equal(t, http.StatusOK, status)
	opts := body["options"].(map[string]interface{})
	assert.Len(t, opts["materials"], 2)
	assert.Len(t, opts["sizes"], 2)

	status, body = f.call(t, http.MethodGet, "/api/v1/products/retired", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body["error"])

	status, body = f.call(t, http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["catalog"].(map[string]interface{})["materials"], 2)
}

func TestQuote(t *testing.T) {
	f := newFixture(t, "")

	status, body := f.call(t, http.MethodPost, "/api/v1/quote", map[string]interface{}{
		"items": []domain.CheckoutItem{
			{ProductID: "p1", MaterialID: "m-canvas", Quantity: 2, UnitPrice: 1},
		},
		"promo_code": "welcome",
	})
	require.Equal(t, http.StatusOK, status)
	totals := body["totals"].(map[string]interface{})
	assert.Equal(t, 7000, num(totals["subtotal"]), "client prices are ignored")
	assert.Equal(t, 700, num(totals["discount"]))
	assert.Equal(t, 500, num(totals["shipping"]))
	assert.Equal(t, 6800, num(totals["total"]))

	status, body = f.call(t, http.MethodPost, "/api/v1/quote", map[string]interface{}{
		"items":      []domain.CheckoutItem{{ProductID: "p1", Quantity: 1}},
		"promo_code": "NOPE",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "unknown_promotion", body["error"])
}

func TestCustomizerToOrder(t *testing.T) {
	f := newFixture(t, "")

	status, body := f.call(t, http.MethodPost, "/api/v1/customizer", map[string]string{"slug": "classic"})
	require.Equal(t, http.StatusCreated, status)
	id := body["id"].(string)
	assert.Equal(t, 2000, quoteTotal(body))

	base := "/api/v1/customizer/" + id

	status, body = f.call(t, http.MethodPost, base+"/cart", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "missing_image", body["error"])

	status, body = f.call(t, http.MethodPatch, base+"/frames/0", map[string]interface{}{
		"image_url":   "https://img.example.com/a.jpg",
		"material_id": "m-canvas",
		"quantity":    2,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 7000, quoteTotal(body))

	status, body = f.call(t, http.MethodPost, base+"/frames/0/duplicate", nil)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 14000, quoteTotal(body))

	status, body = f.call(t, http.MethodPatch, base+"/frames/1", map[string]interface{}{"size_id": "s-large"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 7000+12000, quoteTotal(body))

	status, body = f.call(t, http.MethodPatch, base+"/frames/1", map[string]interface{}{"material_id": "gold"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "unknown_option", body["error"])

	status, body = f.call(t, http.MethodDelete, base+"/frames/7", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "frame_not_found", body["error"])

	status, _ = f.call(t, http.MethodPost, base+"/select/1", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = f.call(t, http.MethodPost, base+"/cart", nil)
	require.Equal(t, http.StatusCreated, status)
	cartID := body["cart"].(map[string]interface{})["id"].(string)
	assert.Equal(t, 19000, num(body["subtotal"]))

	status, body = f.call(t, http.MethodPost, "/api/v1/carts/"+cartID+"/checkout", map[string]interface{}{
		"customer": map[string]string{"name": "Jane", "email": "not-an-email"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "validation_failed", body["error"])
	details := body["details"].(map[string]interface{})
	assert.Contains(t, details, "customer.email")
	assert.Contains(t, details, "shipping.address")

	status, body = f.call(t, http.MethodPost, "/api/v1/carts/"+cartID+"/checkout", map[string]interface{}{
		"customer": map[string]string{"name": "Jane Doe", "email": "Jane@Example.com"},
		"shipping": map[string]string{"address": "Main St 1", "city": "Berlin", "zip": "10115", "country": "DE"},
	})
	require.Equal(t, http.StatusCreated, status)
	order := body["order"].(map[string]interface{})
	assert.Equal(t, "pending", order["status"])
	totals := order["totals"].(map[string]interface{})
	assert.Equal(t, 0, num(totals["shipping"]), "free shipping over the threshold")
	assert.Equal(t, 19000, num(totals["total"]))
	assert.Equal(t, []string{"orders.events"}, f.publisher.subjects)

	tracking := order["tracking_number"].(string)
	status, body = f.call(t, http.MethodGet, "/api/v1/orders/track/"+strings.ToLower(tracking)+"?email=jane@example.com", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, order["id"], body["order"].(map[string]interface{})["id"])

	status, _ = f.call(t, http.MethodGet, "/api/v1/orders/track/"+tracking+"?email=other@example.com", nil)
	assert.Equal(t, http.StatusNotFound, status, "cached order still checks the email")

	status, body = f.call(t, http.MethodPost, "/api/v1/carts/"+cartID+"/checkout", map[string]interface{}{
		"customer": map[string]string{"name": "Jane Doe", "email": "jane@example.com"},
		"shipping": map[string]string{"address": "Main St 1", "city": "Berlin", "zip": "10115", "country": "DE"},
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "empty_cart", body["error"])
}

func TestCustomizerFrameLimit(t *testing.T) {
	f := newFixture(t, "")

	status, body := f.call(t, http.MethodPost, "/api/v1/customizer", map[string]string{"product_id": "p1"})
	require.Equal(t, http.StatusCreated, status)
	base := "/api/v1/customizer/" + body["id"].(string)

	for i := 0; i < 2; i++ {
		status, _ = f.call(t, http.MethodPost, base+"/frames", nil)
		require.Equal(t, http.StatusCreated, status)
	}
	status, body = f.call(t, http.MethodPost, base+"/frames", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "too_many_frames", body["error"])

	status, _ = f.call(t, http.MethodGet, "/api/v1/customizer/unknown", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = f.call(t, http.MethodPost, "/api/v1/customizer", map[string]string{"slug": "retired"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "product_unavailable", body["error"])
}

func TestCartItems(t *testing.T) {
	f := newFixture(t, "")

	status, body := f.call(t, http.MethodPost, "/api/v1/customizer", map[string]string{"slug": "classic"})
	require.Equal(t, http.StatusCreated, status)
	base := "/api/v1/customizer/" + body["id"].(string)
	_, _ = f.call(t, http.MethodPatch, base+"/frames/0", map[string]interface{}{"image_url": "https://img.example.com/a.jpg"})

	status, body = f.call(t, http.MethodPost, "/api/v1/carts", nil)
	require.Equal(t, http.StatusCreated, status)
	cartID := body["cart"].(map[string]interface{})["id"].(string)

	status, body = f.call(t, http.MethodPost, base+"/cart", map[string]string{"cart_id": cartID})
	require.Equal(t, http.StatusCreated, status)
	items := body["cart"].(map[string]interface{})["items"].([]interface{})
	require.Len(t, items, 1)
	itemID := items[0].(map[string]interface{})["id"].(string)

	status, body = f.call(t, http.MethodPatch, "/api/v1/carts/"+cartID+"/items/"+itemID, map[string]int{"quantity": 3})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 6000, num(body["subtotal"]))

	status, body = f.call(t, http.MethodDelete, "/api/v1/carts/"+cartID+"/items/"+itemID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, num(body["subtotal"]))

	status, body = f.call(t, http.MethodDelete, "/api/v1/carts/"+cartID+"/items/"+itemID, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "cart_item_not_found", body["error"])

	status, body = f.call(t, http.MethodPost, base+"/cart", map[string]string{"cart_id": "gone"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "cart_not_found", body["error"])
}

func placeOrder(t *testing.T, f *fixture, id, email string, at time.Time) domain.Order {
	t.Helper()
	o := domain.Order{
		ID:             id,
		TrackingNumber: "TN" + strings.ToUpper(id),
		Status:         domain.StatusPending,
		Customer:       domain.Customer{Name: "Customer " + id, Email: email},
		Totals:         domain.Totals{Total: 2500, Currency: "EUR"},
		CreatedAt:      at,
	}
	_, err := f.orders.Create(context.Background(), &o)
	require.NoError(t, err)
	return o
}

func TestAdminOrders(t *testing.T) {
	f := newFixture(t, "")
	day := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	first := placeOrder(t, f, "a1", "jane@example.com", day)
	placeOrder(t, f, "a2", "max@example.com", day.AddDate(0, 0, 1))

	status, body := f.call(t, http.MethodGet, "/api/v1/orders/track/"+first.TrackingNumber+"?email=jane@example.com", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pending", body["order"].(map[string]interface{})["status"])

	status, body = f.call(t, http.MethodGet, "/api/v1/admin/orders?q=jane", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["orders"], 1)

	status, body = f.call(t, http.MethodGet, "/api/v1/admin/orders?from=2024-03-11&to=2024-03-11", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["orders"], 1)
	assert.Equal(t, "2024-03-11", body["filter"].(map[string]interface{})["to"])

	status, body = f.call(t, http.MethodGet, "/api/v1/admin/orders?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "bad_request", body["error"])

	status, body = f.call(t, http.MethodPatch, "/api/v1/admin/orders/a1/status", map[string]string{"status": "paid", "note": "wire"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "paid", body["order"].(map[string]interface{})["status"])

	status, body = f.call(t, http.MethodGet, "/api/v1/orders/track/"+first.TrackingNumber+"?email=jane@example.com", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "paid", body["order"].(map[string]interface{})["status"], "status change invalidates the cache")

	status, body = f.call(t, http.MethodPatch, "/api/v1/admin/orders/a1/status", map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "invalid_transition", body["error"])

	status, body = f.call(t, http.MethodPost, "/api/v1/admin/orders/bulk-status", map[string]interface{}{
		"ids":    []string{"a1", "a2", "missing"},
		"status": "cancelled",
	})
	require.Equal(t, http.StatusOK, status)
	assert.ElementsMatch(t, []interface{}{"a1", "a2"}, body["updated"])
	assert.Len(t, body["failed"], 1)

	status, body = f.call(t, http.MethodGet, "/api/v1/admin/stats", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, num(body["total"]))
	assert.Equal(t, 2, num(body["counts"].(map[string]interface{})["cancelled"]))

	status, _ = f.call(t, http.MethodGet, "/api/v1/admin/orders/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAdminPage(t *testing.T) {
	f := newFixture(t, "../../templates")
	placeOrder(t, f, "a1", "jane@example.com", time.Now())

	resp, err := f.app.Test(httptest.NewRequest(http.MethodGet, "/admin?q=jane", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "TNA1")
	assert.Contains(t, string(raw), "25.00 EUR")
}

func TestBlogs(t *testing.T) {
	f := newFixture(t, "")

	status, body := f.call(t, http.MethodGet, "/api/v1/blogs?page=1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["blogs"], 1)
	assert.Equal(t, 1, num(body["page"].(map[string]interface{})["total"]))

	status, _ = f.call(t, http.MethodGet, "/api/v1/blogs/draft", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPublish(t *testing.T) {
	f := newFixture(t, "")

	status, body := f.call(t, http.MethodPost, "/api/v1/orders/publish", domain.Order{
		Customer: domain.Customer{Name: "Phone desk", Email: "desk@example.com"},
		Items:    []domain.CheckoutItem{{ProductID: "p1", Quantity: 1}},
	})
	require.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, "orders.intake", body["subject"])
	require.Len(t, f.publisher.messages, 1)

	published := domain.Order{}
	require.NoError(t, json.Unmarshal(f.publisher.messages[0], &published))
	assert.Equal(t, "desk@example.com", published.Customer.Email)

	status, _ = f.call(t, http.MethodPost, "/api/v1/orders/publish", domain.Order{})
	assert.Equal(t, http.StatusConflict, status)
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	app := NewApp("", "test", zap.NewNop())
	app.Get("/boom", func(*fiber.Ctx) error { return errors.New("pq: password authentication failed") })
	app.Get("/missing", func(*fiber.Ctx) error { return fmt.Errorf("load: %w", repositories.ErrNotFound) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	body := ErrorResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal", body.Error)
	assert.NotContains(t, body.Message, "password")
	assert.NotEmpty(t, resp.Header.Get(headerRequestID))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "123.45", Money(12345))
	assert.Equal(t, "0.05", Money(5))
	assert.Equal(t, "-1.50", Money(-150))
}
