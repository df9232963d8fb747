package explorer

import (
	"sync"

	"github.com/sells-group/map-insights/internal/model"
)

// state is the full mutable state of a session. It is only touched with
// core.mu held.
type state struct {
	mode  model.Mode
	style model.BasemapStyle

	// zoom is the camera zoom the session asks for; observedZoom is what
	// the map surface last reported after settling.
	zoom         float64
	observedZoom float64
	hasObserved  bool

	selected *model.Coordinate
	snapshot *model.DemographicSnapshot

	place          *model.PlaceResult
	popupDismissed bool

	fetches map[model.OpKind]model.FetchState
	lastErr error
}

type core struct {
	opts Options

	mu           sync.Mutex
	st           state
	version      uint64
	listeners    map[int]func()
	nextListener int
}

func newCore(opts Options) *core {
	c := &core{
		opts:      opts,
		listeners: make(map[int]func()),
	}
	c.st = state{
		mode:    model.ModeNone,
		style:   model.StyleCommunity,
		zoom:    DefaultZoom,
		fetches: make(map[model.OpKind]model.FetchState, 3),
	}
	for _, k := range model.AllOpKinds() {
		c.st.fetches[k] = model.FetchState{Status: model.FetchIdle}
	}
	return c
}

// mutate applies fn under the lock. When fn reports a change the version is
// bumped and listeners are notified after the lock is released.
func (c *core) mutate(fn func(st *state) bool) {
	c.mu.Lock()
	changed := fn(&c.st)
	var ls []func()
	if changed {
		c.version++
		ls = make([]func(), 0, len(c.listeners))
		for _, l := range c.listeners {
			ls = append(ls, l)
		}
	}
	c.mu.Unlock()

	for _, l := range ls {
		l()
	}
}

// reject records a user-facing validation failure as the last error.
func (st *state) reject(err error) error {
	st.lastErr = err
	return err
}
