package explorer

import (
	"context"

	"github.com/sells-group/map-insights/internal/geometry"
	"github.com/sells-group/map-insights/internal/model"
)

// MapEvents converts raw map gestures into session commands.
type MapEvents struct {
	modes *Coordinator
	fetch *Fetcher
}

// OnPress dispatches exactly one lookup for a tap at point, chosen by the
// active mode. It does nothing when no insight mode is active.
func (e *MapEvents) OnPress(ctx context.Context, point model.Coordinate) error {
	switch e.modes.CurrentMode() {
	case model.ModeDemographic:
		return e.fetch.RunDemographicLookup(ctx, point)
	case model.ModePlaceDetails:
		return e.fetch.RunPlacesLookup(ctx, point)
	default:
		return nil
	}
}

// OnRegionChanged records the zoom the map settled at. The overlay radius
// follows the observed zoom, which can differ from the requested one while
// camera animations run. The zoom is clamped to [0, MaxZoom]. No lookup is
// triggered.
func (e *MapEvents) OnRegionChanged(observedZoom float64) {
	observedZoom = geometry.ClampZoom(observedZoom)
	e.modes.c.mutate(func(st *state) bool {
		if st.hasObserved && st.observedZoom == observedZoom {
			return false
		}
		st.observedZoom = observedZoom
		st.hasObserved = true
		return true
	})
}
