package server

import (
	"github.com/gofiber/fiber/v2"

	"frameshop/internal/cart"
	"frameshop/internal/checkout"
)

func cartJSON(c *cart.Cart) fiber.Map {
	return fiber.Map{
		"cart":     c,
		"subtotal": c.Subtotal(),
	}
}

func (h *Handler) createCart(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusCreated).JSON(cartJSON(h.carts.Create()))
}

func (h *Handler) getCart(ctx *fiber.Ctx) error {
	c, err := h.carts.Get(ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(cartJSON(c))
}

type cartItemRequest struct {
	Quantity int `json:"quantity"`
}

// updateCartItem sets the quantity of one line; zero removes it.
func (h *Handler) updateCartItem(ctx *fiber.Ctx) error {
	request := &cartItemRequest{}
	if err := ctx.BodyParser(request); err != nil {
		return badRequest(err)
	}
	c, err := h.carts.UpdateQuantity(ctx.Params("id"), ctx.Params("item"), request.Quantity)
	if err != nil {
		return err
	}
	return ctx.JSON(cartJSON(c))
}

func (h *Handler) removeCartItem(ctx *fiber.Ctx) error {
	c, err := h.carts.Remove(ctx.Params("id"), ctx.Params("item"))
	if err != nil {
		return err
	}
	return ctx.JSON(cartJSON(c))
}

func (h *Handler) checkoutCart(ctx *fiber.Ctx) error {
	request := checkout.Request{}
	if err := ctx.BodyParser(&request); err != nil {
		return badRequest(err)
	}
	order, err := h.checkout.Checkout(ctx.UserContext(), ctx.Params("id"), request)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order": order,
	})
}
