package customizer

import (
	"math"

	"frameshop/domain"
)

// NormalizeTransform brings t back inside its invariants: zoom in
// [MinZoom, MaxZoom], rotation one of 0/90/180/270 and offsets that keep the
// crop window inside the image.
func NormalizeTransform(t domain.ImageTransform) domain.ImageTransform {
	if math.IsNaN(t.Zoom) || t.Zoom < domain.MinZoom {
		t.Zoom = domain.MinZoom
	}
	if t.Zoom > domain.MaxZoom {
		t.Zoom = domain.MaxZoom
	}

	t.Rotation = normalizeRotation(t.Rotation)

	limit := 1 - 1/t.Zoom
	t.OffsetX = clamp(t.OffsetX, 0, limit)
	t.OffsetY = clamp(t.OffsetY, 0, limit)
	return t
}

// ZoomTo sets the zoom level keeping the centre of the crop window in place.
func ZoomTo(t domain.ImageTransform, zoom float64) domain.ImageTransform {
	t = NormalizeTransform(t)
	oldSize := 1 / t.Zoom
	cx, cy := t.OffsetX+oldSize/2, t.OffsetY+oldSize/2

	t.Zoom = zoom
	t = NormalizeTransform(t)

	size := 1 / t.Zoom
	t.OffsetX, t.OffsetY = cx-size/2, cy-size/2
	return NormalizeTransform(t)
}

// PanBy moves the crop window by dx, dy (fractions of the image size).
func PanBy(t domain.ImageTransform, dx, dy float64) domain.ImageTransform {
	t.OffsetX += dx
	t.OffsetY += dy
	return NormalizeTransform(t)
}

// RotateBy turns the image by quarterTurns * 90 degrees, negative is counterclockwise.
func RotateBy(t domain.ImageTransform, quarterTurns int) domain.ImageTransform {
	t.Rotation += quarterTurns * 90
	return NormalizeTransform(t)
}

// normalizeRotation snaps to the nearest quarter turn in [0, 360).
func normalizeRotation(deg int) int {
	q := int(math.Round(float64(deg) / 90))
	q %= 4
	if q < 0 {
		q += 4
	}
	return q * 90
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
