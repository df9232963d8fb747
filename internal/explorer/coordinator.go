package explorer

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/map-insights/internal/metrics"
	"github.com/sells-group/map-insights/internal/model"
)

// ErrRequiresPlacesStyle is returned when place details are toggled on any
// style other than Places.
var ErrRequiresPlacesStyle = model.NewValidationError("toggle place details", eris.New("requires Places style"))

// Coordinator owns the insight mode state machine. Entering a mode clears
// the other mode's derived data and abandons its in-flight lookup in the
// same critical section, so no observer ever sees both modes active.
type Coordinator struct {
	c     *core
	fetch *Fetcher
}

// CurrentMode returns the active insight mode.
func (m *Coordinator) CurrentMode() model.Mode {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	return m.c.st.mode
}

// BasemapStyle returns the current basemap style.
func (m *Coordinator) BasemapStyle() model.BasemapStyle {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	return m.c.st.style
}

// SetBasemapStyle switches the basemap and resets the zoom to 17 for Places
// and 12 otherwise. The insight mode is left untouched.
func (m *Coordinator) SetBasemapStyle(style model.BasemapStyle) error {
	var err error
	m.c.mutate(func(st *state) bool {
		if !style.Valid() {
			err = st.reject(model.NewValidationError("set basemap style", eris.Errorf("unknown basemap style %q", style)))
			return true
		}
		st.style = style
		if style == model.StylePlaces {
			st.zoom = PlaceDetailsZoom
		} else {
			st.zoom = DefaultZoom
		}
		return true
	})
	if err == nil {
		zap.L().Debug("explorer: basemap style changed", zap.String("style", string(style)))
	}
	return err
}

// ToggleDemographic turns demographic mode on (leaving place details) or
// off (dropping the snapshot and overlay).
func (m *Coordinator) ToggleDemographic() {
	var to model.Mode
	m.c.mutate(func(st *state) bool {
		if st.mode == model.ModeDemographic {
			m.fetch.abandonLocked(st, model.OpEnrich)
			st.snapshot = nil
			to = model.ModeNone
		} else {
			if st.mode == model.ModePlaceDetails {
				m.leavePlaceDetailsLocked(st)
			}
			st.zoom = DefaultZoom
			to = model.ModeDemographic
		}
		st.mode = to
		return true
	})
	m.logTransition(to)
}

// TogglePlaceDetails turns place-details mode on (leaving demographic mode)
// or off. It fails with ErrRequiresPlacesStyle, leaving the mode unchanged,
// unless the basemap style is Places.
func (m *Coordinator) TogglePlaceDetails() error {
	var (
		err error
		to  model.Mode
	)
	m.c.mutate(func(st *state) bool {
		if st.style != model.StylePlaces {
			err = st.reject(ErrRequiresPlacesStyle)
			return true
		}
		if st.mode == model.ModePlaceDetails {
			m.leavePlaceDetailsLocked(st)
			to = model.ModeNone
		} else {
			if st.mode == model.ModeDemographic {
				m.fetch.abandonLocked(st, model.OpEnrich)
				st.snapshot = nil
			}
			st.zoom = PlaceDetailsZoom
			to = model.ModePlaceDetails
		}
		st.mode = to
		return true
	})
	if err != nil {
		return err
	}
	m.logTransition(to)
	return nil
}

func (m *Coordinator) leavePlaceDetailsLocked(st *state) {
	m.fetch.abandonLocked(st, model.OpPlaces)
	st.place = nil
	st.popupDismissed = false
}

// ZoomIn raises the target zoom by half a level, never above MaxZoom.
func (m *Coordinator) ZoomIn() {
	m.c.mutate(func(st *state) bool {
		z := math.Min(st.zoom+zoomInStep, MaxZoom)
		if z == st.zoom {
			return false
		}
		st.zoom = z
		return true
	})
}

// ZoomOut lowers the target zoom by a quarter level, never below zero.
func (m *Coordinator) ZoomOut() {
	m.c.mutate(func(st *state) bool {
		z := math.Max(st.zoom-zoomOutStep, 0)
		if z == st.zoom {
			return false
		}
		st.zoom = z
		return true
	})
}

// DismissPopup hides the place popup until the next places result.
func (m *Coordinator) DismissPopup() {
	m.c.mutate(func(st *state) bool {
		if st.popupDismissed {
			return false
		}
		st.popupDismissed = true
		return true
	})
}

func (m *Coordinator) logTransition(to model.Mode) {
	metrics.ModeTransitionsTotal.WithLabelValues(string(to)).Inc()
	zap.L().Debug("explorer: mode changed", zap.String("mode", string(to)))
}
