package server

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"frameshop/domain"
	"frameshop/internal/checkout"
	"frameshop/internal/repositories"
)

func (h *Handler) getCatalog(ctx *fiber.Ctx) error {
	catalog, err := h.catalog.Catalog(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"catalog": catalog,
	})
}

// listProducts only active products are shown in the shop.
func (h *Handler) listProducts(ctx *fiber.Ctx) error {
	products, err := h.products.List(ctx.UserContext(), true)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"products": products,
	})
}

func (h *Handler) getProduct(ctx *fiber.Ctx) error {
	product, err := h.products.GetBySlug(ctx.UserContext(), ctx.Params("slug"))
	if err != nil {
		return err
	}
	if !product.Active {
		return repositories.ErrNotFound
	}

	catalog, err := h.catalog.Catalog(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"product": product,
		"options": fiber.Map{
			"materials":    catalog.Allowed(domain.KindMaterial, product),
			"sizes":        catalog.Allowed(domain.KindSize, product),
			"frame_colors": catalog.Allowed(domain.KindFrameColor, product),
			"hang_options": catalog.Allowed(domain.KindHangOption, product),
		},
	})
}

type quoteRequest struct {
	Items     []domain.CheckoutItem `json:"items"`
	PromoCode string                `json:"promo_code"`
}

// quote prices arbitrary items without creating anything.
func (h *Handler) quote(ctx *fiber.Ctx) error {
	request := &quoteRequest{}
	if err := ctx.BodyParser(request); err != nil {
		return badRequest(err)
	}
	items, totals, err := h.checkout.Quote(ctx.UserContext(), request.Items, request.PromoCode)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"items":  items,
		"totals": totals,
	})
}

func (h *Handler) listBlogs(ctx *fiber.Ctx) error {
	blogs, page, err := h.blogs.ListPublished(ctx.UserContext(), ctx.QueryInt("page", 1), ctx.QueryInt("per_page", 0))
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"blogs": blogs,
		"page":  page,
	})
}

func (h *Handler) getBlog(ctx *fiber.Ctx) error {
	blog, err := h.blogs.GetBySlug(ctx.UserContext(), ctx.Params("slug"))
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"blog": blog,
	})
}

// track order lookup for the shopper. Answers come from the cache when
// possible; the email check is done on every request.
func (h *Handler) track(ctx *fiber.Ctx) error {
	key := strings.ToUpper(strings.TrimSpace(ctx.Params("tracking")))
	email := ctx.Query("email")
	if key == "" || email == "" {
		return badRequest(errors.New("tracking number and email are required"))
	}

	if h.cache != nil && h.cache.Has(ctx.UserContext(), key) {
		order, ok, err := h.cache.Get(ctx.UserContext(), key)
		if err == nil && ok {
			if !strings.EqualFold(strings.TrimSpace(email), order.Customer.Email) {
				return checkout.ErrNotFound
			}
			return ctx.JSON(fiber.Map{
				"order": order,
			})
		}
	}

	order, err := h.checkout.Track(ctx.UserContext(), key, email)
	if err != nil {
		return err
	}

	if h.cache != nil {
		if err = h.cache.Set(ctx.UserContext(), key, order, h.cacheTTL); err != nil {
			h.logger.Warn("failed to cache order", zap.String("tracking", key), zap.Error(err))
		}
	}
	return ctx.JSON(fiber.Map{
		"order": order,
	})
}

// publish hands an order to the intake subject instead of storing it
// directly, the same path phone orders take.
func (h *Handler) publish(ctx *fiber.Ctx) error {
	if h.publisher == nil || h.intakeSubject == "" {
		return fiber.NewError(fiber.StatusServiceUnavailable, "order intake is not configured")
	}

	request := &domain.Order{}
	if err := ctx.BodyParser(request); err != nil {
		return badRequest(err)
	}
	if len(request.Items) == 0 {
		return checkout.ErrEmptyCart
	}

	bytes, err := json.Marshal(request)
	if err != nil {
		return err
	}
	if err = h.publisher.Publish(h.intakeSubject, bytes); err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"subject": h.intakeSubject,
		"items":   len(request.Items),
	})
}
