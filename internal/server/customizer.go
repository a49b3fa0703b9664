package server

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"frameshop/domain"
	"frameshop/internal/cart"
	"frameshop/internal/checkout"
	"frameshop/internal/customizer"
)

type createSessionRequest struct {
	ProductID string `json:"product_id"`
	Slug      string `json:"slug"`
}

// sessionView what the customizer page needs to redraw itself.
type sessionView struct {
	ID     string           `json:"id"`
	CartID string           `json:"cart_id,omitempty"`
	State  customizer.State `json:"state"`
	Quote  customizer.Quote `json:"quote"`
}

func view(s *customizer.Session) (sessionView, error) {
	v := sessionView{ID: s.ID, CartID: s.Cart()}
	err := s.Do(func(c *customizer.Customizer) error {
		v.State = c.State()
		v.Quote = c.Price()
		return nil
	})
	return v, err
}

func (h *Handler) createSession(ctx *fiber.Ctx) error {
	request := &createSessionRequest{}
	if err := ctx.BodyParser(request); err != nil {
		return badRequest(err)
	}

	var (
		product domain.Product
		err     error
	)
	switch {
	case request.ProductID != "":
		product, err = h.products.Get(ctx.UserContext(), request.ProductID)
	case request.Slug != "":
		product, err = h.products.GetBySlug(ctx.UserContext(), request.Slug)
	default:
		return badRequest(errors.New("product_id or slug is required"))
	}
	if err != nil {
		return err
	}
	if !product.Active {
		return fmt.Errorf("%w: %s", checkout.ErrProductUnavailable, product.Name)
	}

	catalog, err := h.catalog.Catalog(ctx.UserContext())
	if err != nil {
		return err
	}

	session, err := h.sessions.Create(ctx.UserContext(),
		customizer.New(product, catalog, customizer.WithMaxFrames(h.maxFrames)))
	if err != nil {
		return err
	}

	v, err := view(session)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(v)
}

func (h *Handler) session(ctx *fiber.Ctx) (*customizer.Session, error) {
	return h.sessions.Get(ctx.UserContext(), ctx.Params("id"))
}

// edit runs fn on the session named in the path and answers with the new view.
func (h *Handler) edit(ctx *fiber.Ctx, status int, fn func(c *customizer.Customizer) error) error {
	session, err := h.session(ctx)
	if err != nil {
		return err
	}
	if err = session.Do(fn); err != nil {
		return err
	}
	v, err := view(session)
	if err != nil {
		return err
	}
	return ctx.Status(status).JSON(v)
}

func frameIndex(ctx *fiber.Ctx) (int, error) {
	i, err := ctx.ParamsInt("index")
	if err != nil {
		return 0, badRequest(fmt.Errorf("invalid frame index: %w", err))
	}
	return i, nil
}

func (h *Handler) getSession(ctx *fiber.Ctx) error {
	return h.edit(ctx, fiber.StatusOK, func(*customizer.Customizer) error { return nil })
}

func (h *Handler) addFrame(ctx *fiber.Ctx) error {
	return h.edit(ctx, fiber.StatusCreated, func(c *customizer.Customizer) error {
		_, err := c.AddFrame()
		return err
	})
}

func (h *Handler) updateFrame(ctx *fiber.Ctx) error {
	i, err := frameIndex(ctx)
	if err != nil {
		return err
	}
	patch := customizer.Patch{}
	if err = ctx.BodyParser(&patch); err != nil {
		return badRequest(err)
	}
	return h.edit(ctx, fiber.StatusOK, func(c *customizer.Customizer) error {
		return c.Apply(i, patch)
	})
}

func (h *Handler) removeFrame(ctx *fiber.Ctx) error {
	i, err := frameIndex(ctx)
	if err != nil {
		return err
	}
	return h.edit(ctx, fiber.StatusOK, func(c *customizer.Customizer) error {
		return c.RemoveFrame(i)
	})
}

func (h *Handler) duplicateFrame(ctx *fiber.Ctx) error {
	i, err := frameIndex(ctx)
	if err != nil {
		return err
	}
	return h.edit(ctx, fiber.StatusCreated, func(c *customizer.Customizer) error {
		_, err := c.DuplicateFrame(i)
		return err
	})
}

func (h *Handler) selectFrame(ctx *fiber.Ctx) error {
	i, err := frameIndex(ctx)
	if err != nil {
		return err
	}
	return h.edit(ctx, fiber.StatusOK, func(c *customizer.Customizer) error {
		return c.Select(i)
	})
}

type addToCartRequest struct {
	CartID string `json:"cart_id"`
}

// addToCart puts every frame of the session into a cart. Without a cart id
// the session's previous cart is reused, or a new one is created.
func (h *Handler) addToCart(ctx *fiber.Ctx) error {
	request := &addToCartRequest{}
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(request); err != nil {
			return badRequest(err)
		}
	}

	session, err := h.session(ctx)
	if err != nil {
		return err
	}

	var items []domain.CheckoutItem
	err = session.Do(func(c *customizer.Customizer) error {
		items, err = c.CheckoutItems()
		return err
	})
	if err != nil {
		return err
	}

	cartID := request.CartID
	if cartID == "" {
		cartID = session.Cart()
	}

	var c *cart.Cart
	if cartID != "" {
		c, err = h.carts.AddItems(cartID, items...)
	}
	if cartID == "" || (errors.Is(err, cart.ErrNotFound) && request.CartID == "") {
		c, err = h.carts.AddItems(h.carts.Create().ID, items...)
	}
	if err != nil {
		return err
	}
	session.BindCart(c.ID)

	return ctx.Status(fiber.StatusCreated).JSON(cartJSON(c))
}
