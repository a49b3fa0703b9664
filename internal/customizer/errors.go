package customizer

import (
	"errors"
	"fmt"

	"frameshop/domain"
)

var (
	ErrFrameIndex      = errors.New("frame index out of range")
	ErrUnknownOption   = errors.New("option is not offered for this product")
	ErrTooManyFrames   = errors.New("too many frames")
	ErrMissingImage    = errors.New("frame has no image")
	ErrInvalidQuantity = domain.ErrInvalidQuantity
	ErrInvalidImage    = errors.New("image url is not valid")
	ErrInvalidBorder   = errors.New("border width must not be negative")
	ErrSessionNotFound = errors.New("customizer session not found")
)

// MissingImageError names the frame that blocks checkout.
type MissingImageError struct {
	Index int
}

func (e *MissingImageError) Error() string {
	return fmt.Sprintf("frame %d has no image", e.Index)
}

func (e *MissingImageError) Is(target error) bool {
	return target == ErrMissingImage
}
