package server

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"frameshop/domain"
	"frameshop/internal/admin"
)

func (h *Handler) search(ctx *fiber.Ctx) (admin.Listing, error) {
	filter, err := admin.ParseFilter(ctx.Query("status"), ctx.Query("q"), ctx.Query("from"), ctx.Query("to"))
	if err != nil {
		return admin.Listing{}, err
	}
	return h.admin.Search(ctx.UserContext(), filter, ctx.QueryInt("page", 1), ctx.QueryInt("per_page", 0))
}

// adminPage renders the order dashboard.
func (h *Handler) adminPage(ctx *fiber.Ctx) error {
	listing, err := h.search(ctx)
	if err != nil {
		return err
	}
	stats, err := h.admin.Stats(ctx.UserContext())
	if err != nil {
		return err
	}
	data := fiber.Map{
		"listing":  listing,
		"stats":    stats,
		"statuses": domain.Statuses,
	}
	if listing.Page.HasPrev {
		data["prev"] = pageLink(listing.Filter, listing.Page.Page-1)
	}
	if listing.Page.HasNext {
		data["next"] = pageLink(listing.Filter, listing.Page.Page+1)
	}
	return ctx.Render("orders", data)
}

// pageLink dashboard URL of another page with the same filter.
func pageLink(f admin.ListingFilter, page int) string {
	q := url.Values{}
	for k, v := range map[string]string{"status": f.Status, "q": f.Query, "from": f.From, "to": f.To} {
		if v != "" {
			q.Set(k, v)
		}
	}
	q.Set("page", strconv.Itoa(page))
	return "/admin?" + q.Encode()
}

func (h *Handler) adminOrders(ctx *fiber.Ctx) error {
	listing, err := h.search(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(listing)
}

func (h *Handler) adminOrder(ctx *fiber.Ctx) error {
	order, err := h.admin.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"order": order,
	})
}

type statusRequest struct {
	IDs    []string `json:"ids,omitempty"`
	Status string   `json:"status"`
	Note   string   `json:"note"`
}

func (r statusRequest) status() (domain.OrderStatus, error) {
	st, err := domain.ParseStatus(r.Status)
	if err != nil {
		return "", badRequest(err)
	}
	return st, nil
}

func (h *Handler) adminUpdateStatus(ctx *fiber.Ctx) error {
	request := &statusRequest{}
	if err := ctx.BodyParser(request); err != nil {
		return badRequest(err)
	}
	status, err := request.status()
	if err != nil {
		return err
	}
	order, err := h.admin.UpdateStatus(ctx.UserContext(), ctx.Params("id"), status, request.Note)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"order": order,
	})
}

// adminBulkStatus answers 200 even when some orders failed; the result
// lists them with the reason.
func (h *Handler) adminBulkStatus(ctx *fiber.Ctx) error {
	request := &statusRequest{}
	if err := ctx.BodyParser(request); err != nil {
		return badRequest(err)
	}
	status, err := request.status()
	if err != nil {
		return err
	}
	res, err := h.admin.BulkUpdateStatus(ctx.UserContext(), request.IDs, status, request.Note)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (h *Handler) adminStats(ctx *fiber.Ctx) error {
	stats, err := h.admin.Stats(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(stats)
}
