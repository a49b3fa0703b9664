package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"frameshop/domain"
	"frameshop/internal/admin"
	"frameshop/internal/cart"
	"frameshop/internal/checkout"
	"frameshop/internal/customizer"
	"frameshop/internal/pricing"
	"frameshop/internal/repositories"
)

// ErrorResponse body of every failed API call.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// requestError a malformed request: unreadable body or bad path parameter.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &requestError{err: err}
}

type errorKind struct {
	target error
	status int
	code   string
}

var errorKinds = []errorKind{
	{repositories.ErrNotFound, fiber.StatusNotFound, "not_found"},
	{checkout.ErrNotFound, fiber.StatusNotFound, "not_found"},
	{cart.ErrNotFound, fiber.StatusNotFound, "cart_not_found"},
	{cart.ErrItemNotFound, fiber.StatusNotFound, "cart_item_not_found"},
	{customizer.ErrSessionNotFound, fiber.StatusNotFound, "session_not_found"},
	{customizer.ErrFrameIndex, fiber.StatusNotFound, "frame_not_found"},
	{customizer.ErrTooManyFrames, fiber.StatusConflict, "too_many_frames"},
	{customizer.ErrUnknownOption, fiber.StatusUnprocessableEntity, "unknown_option"},
	{customizer.ErrMissingImage, fiber.StatusUnprocessableEntity, "missing_image"},
	{domain.ErrInvalidQuantity, fiber.StatusUnprocessableEntity, "invalid_quantity"},
	{customizer.ErrInvalidImage, fiber.StatusUnprocessableEntity, "invalid_image"},
	{customizer.ErrInvalidBorder, fiber.StatusUnprocessableEntity, "invalid_border"},
	{checkout.ErrEmptyCart, fiber.StatusConflict, "empty_cart"},
	{checkout.ErrProductUnavailable, fiber.StatusConflict, "product_unavailable"},
	{pricing.ErrUnknownPromotion, fiber.StatusUnprocessableEntity, "unknown_promotion"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "invalid_transition"},
	{admin.ErrTooManyIDs, fiber.StatusBadRequest, "too_many_ids"},
}

// classify maps err onto an HTTP status and an error code.
func classify(err error) (int, string) {
	var (
		ve *checkout.ValidationError
		fe *admin.FilterError
		re *requestError
		he *fiber.Error
	)
	switch {
	case errors.As(err, &ve):
		return fiber.StatusUnprocessableEntity, "validation_failed"
	case errors.As(err, &fe), errors.As(err, &re):
		return fiber.StatusBadRequest, "bad_request"
	case errors.As(err, &he):
		return he.Code, "http_error"
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.status, k.code
		}
	}
	return fiber.StatusInternalServerError, "internal"
}

func statusOf(err error) int {
	status, _ := classify(err)
	return status
}

// ErrorHandler renders every error returned by a handler as ErrorResponse.
// Internal errors are logged and their text is not sent to the client.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		status, code := classify(err)

		resp := ErrorResponse{Error: code, Message: err.Error()}
		var ve *checkout.ValidationError
		if errors.As(err, &ve) {
			resp.Details = ve.Fields
		}
		if status >= fiber.StatusInternalServerError {
			logger.Error("unhandled error", zap.String("path", ctx.Path()), zap.Error(err))
			resp.Message = "internal server error"
		}
		return ctx.Status(status).JSON(resp)
	}
}
