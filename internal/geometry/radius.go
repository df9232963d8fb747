// Package geometry derives the on-screen size of the demographic search-area
// overlay from the map zoom level.
package geometry

import "math"

const (
	// BaseRadius is the overlay radius in pixels at ReferenceZoom.
	BaseRadius = 410.0
	// ReferenceZoom is the zoom level at which the overlay is BaseRadius wide.
	ReferenceZoom = 14.0
	// ScaleFactor is the radius growth per zoom level.
	ScaleFactor = 2.0
	// MaxZoom is the deepest zoom the map surface renders.
	MaxZoom = 22.0
)

// RadiusPixels returns the overlay radius for zoom. The result is a visual
// heuristic approximating a fixed catchment on screen, not a geodesic
// distance. Zooms are clamped to [0, MaxZoom] so the result is always finite.
func RadiusPixels(zoom float64) float64 {
	return BaseRadius * math.Pow(ScaleFactor, ClampZoom(zoom)-ReferenceZoom)
}

// ClampZoom bounds zoom to [0, MaxZoom], mapping NaN to zero.
func ClampZoom(zoom float64) float64 {
	if math.IsNaN(zoom) || zoom < 0 {
		return 0
	}
	return math.Min(zoom, MaxZoom)
}
