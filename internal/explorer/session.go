// Package explorer coordinates a map-exploration session: the basemap style
// and zoom, the mutually exclusive demographic and place-details insight
// modes, and the asynchronous lookups that tapping and searching trigger.
//
// All state of a session sits behind one mutex. Lookups run outside the lock
// and commit their result only if no newer lookup of the same kind has been
// issued in the meantime.
package explorer

import (
	"sync"

	"github.com/google/uuid"

	"github.com/sells-group/map-insights/internal/geometry"
	"github.com/sells-group/map-insights/internal/model"
	"github.com/sells-group/map-insights/pkg/arcgis"
)

// Zoom levels applied on mode and style changes.
const (
	DefaultZoom      = 12.0
	PlaceDetailsZoom = 17.0
	MaxZoom          = geometry.MaxZoom

	zoomInStep  = 0.5
	zoomOutStep = 0.25
)

// DefaultCenter is the camera center before any location is selected.
var DefaultCenter = model.Coordinate{Longitude: -116.546459, Latitude: 33.821037}

// Options configures a session.
type Options struct {
	// StyleURLs overrides the style document per basemap style. Missing
	// entries fall back to model.DefaultStyleURLs.
	StyleURLs map[model.BasemapStyle]string

	// DefaultCenter is the camera center before a location is selected.
	DefaultCenter model.Coordinate

	// PlacesRadius is the near-point search radius in provider units.
	PlacesRadius float64

	// CancelSuperseded cancels the context of a lookup once a newer lookup
	// of the same kind is issued or its mode is left. Without it superseded
	// responses are still discarded, but the transport call runs to
	// completion.
	CancelSuperseded bool
}

// DefaultOptions returns the options matching the stock ArcGIS setup.
func DefaultOptions() Options {
	return Options{
		StyleURLs:     model.DefaultStyleURLs,
		DefaultCenter: DefaultCenter,
		PlacesRadius:  arcgis.DefaultPlacesRadius,
	}
}

func (o Options) styleURL(s model.BasemapStyle) string {
	if u, ok := o.StyleURLs[s]; ok && u != "" {
		return u
	}
	return model.DefaultStyleURLs[s]
}

// Session is one user's exploration screen.
type Session struct {
	ID string

	// Modes switches basemap style, zoom and insight mode.
	Modes *Coordinator
	// Fetch runs lookups and reconciles their results.
	Fetch *Fetcher
	// Map translates map gestures into commands.
	Map *MapEvents

	core *core
}

// NewSession creates a session in ModeNone on the Community style.
func NewSession(client arcgis.Client, opts Options) *Session {
	if opts.PlacesRadius <= 0 {
		opts.PlacesRadius = arcgis.DefaultPlacesRadius
	}
	c := newCore(opts)
	f := newFetcher(c, client)
	m := &Coordinator{c: c, fetch: f}
	return &Session{
		ID:    uuid.NewString(),
		Modes: m,
		Fetch: f,
		Map:   &MapEvents{modes: m, fetch: f},
		core:  c,
	}
}

// View returns a consistent snapshot of everything the map surface renders.
func (s *Session) View() View {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	return s.core.viewLocked()
}

// OnChange registers fn to run after every state change. fn runs outside
// the session lock and may call View. The returned func unregisters it.
func (s *Session) OnChange(fn func()) (cancel func()) {
	c := s.core
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}
