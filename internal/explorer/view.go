package explorer

import (
	"encoding/json"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/map-insights/internal/geometry"
	"github.com/sells-group/map-insights/internal/model"
)

// CircleStyle is the paint applied to the overlay circle layer.
type CircleStyle struct {
	RadiusPixels float64 `json:"radius_pixels"`
	FillColor    string  `json:"fill_color"`
	Opacity      float64 `json:"opacity"`
	StrokeWidth  float64 `json:"stroke_width"`
	StrokeColor  string  `json:"stroke_color"`
}

// Overlay is the demographic search-area circle with its paint and a
// GeoJSON shape source for the map surface.
type Overlay struct {
	model.CircleOverlay
	Style CircleStyle     `json:"style"`
	Shape json.RawMessage `json:"shape,omitempty"`
}

// ErrorView is the last error in a displayable form.
type ErrorView struct {
	Kind    model.ErrorKind `json:"kind"`
	Message string          `json:"message"`
}

// View is an immutable snapshot of a session for rendering.
type View struct {
	SessionVersion uint64             `json:"version"`
	Mode           model.Mode         `json:"mode"`
	Style          model.BasemapStyle `json:"style"`
	StyleLabel     string             `json:"style_label"`
	StyleURL       string             `json:"style_url"`
	ZoomLevel      float64            `json:"zoom_level"`
	ObservedZoom   *float64           `json:"observed_zoom,omitempty"`
	Center         model.Coordinate   `json:"center"`
	Marker         *model.Coordinate  `json:"marker,omitempty"`
	Overlay        *Overlay           `json:"overlay,omitempty"`

	Demographics *model.DemographicSnapshot `json:"demographics,omitempty"`
	Place        *model.PlaceResult         `json:"place,omitempty"`
	PopupVisible bool                       `json:"popup_visible"`

	Fetches   map[model.OpKind]model.FetchState `json:"fetches"`
	Loading   bool                              `json:"loading"`
	LastError *ErrorView                        `json:"last_error,omitempty"`
}

var titleCase = cases.Title(language.English)

// StyleLabel returns the display label of a basemap style.
func StyleLabel(s model.BasemapStyle) string {
	return titleCase.String(string(s))
}

func defaultCircleStyle(radius float64) CircleStyle {
	return CircleStyle{
		RadiusPixels: radius,
		FillColor:    "rgba(255, 18, 202, 0.5)",
		Opacity:      0.8,
		StrokeWidth:  3,
		StrokeColor:  "rgba(0, 0, 0, 0.4)",
	}
}

// viewLocked builds the snapshot. Callers hold c.mu.
func (c *core) viewLocked() View {
	st := &c.st
	v := View{
		SessionVersion: c.version,
		Mode:           st.mode,
		Style:          st.style,
		StyleLabel:     StyleLabel(st.style),
		StyleURL:       c.opts.styleURL(st.style),
		ZoomLevel:      st.zoom,
		Center:         c.opts.DefaultCenter,
		Fetches:        make(map[model.OpKind]model.FetchState, len(st.fetches)),
	}
	if st.hasObserved {
		z := st.observedZoom
		v.ObservedZoom = &z
	}
	if st.selected != nil {
		sel := *st.selected
		v.Center = sel
		v.Marker = &sel
	}

	for k, fs := range st.fetches {
		v.Fetches[k] = fs
		if fs.Status == model.FetchLoading {
			v.Loading = true
		}
	}

	if st.mode == model.ModeDemographic {
		if st.snapshot != nil {
			snap := *st.snapshot
			v.Demographics = &snap
		}
		if st.selected != nil {
			v.Overlay = newOverlay(*st.selected, c.radiusZoomLocked())
		}
	}

	if st.mode == model.ModePlaceDetails && st.place != nil {
		p := *st.place
		p.Categories = append([]model.Category(nil), st.place.Categories...)
		v.Place = &p
		v.PopupVisible = !st.popupDismissed && st.fetches[model.OpPlaces].Status == model.FetchSucceeded
	}

	if st.lastErr != nil {
		v.LastError = &ErrorView{Kind: model.KindOf(st.lastErr), Message: st.lastErr.Error()}
	}
	return v
}

// radiusZoomLocked is the zoom the overlay radius follows: the observed
// zoom once the map has reported one, the requested zoom before that.
func (c *core) radiusZoomLocked() float64 {
	if c.st.hasObserved {
		return c.st.observedZoom
	}
	return c.st.zoom
}

func newOverlay(center model.Coordinate, zoom float64) *Overlay {
	radius := geometry.RadiusPixels(zoom)
	o := &Overlay{
		CircleOverlay: model.CircleOverlay{Center: center, RadiusPixels: radius},
		Style:         defaultCircleStyle(radius),
	}

	fc := geojson.FeatureCollection{
		Features: []*geojson.Feature{{
			Geometry:   geom.NewPointFlat(geom.XY, center.LonLat()),
			Properties: map[string]interface{}{"radius_pixels": radius},
		}},
	}
	shape, err := json.Marshal(&fc)
	if err != nil {
		zap.L().Warn("explorer: encode overlay shape", zap.Error(err))
		return o
	}
	o.Shape = shape
	return o
}
