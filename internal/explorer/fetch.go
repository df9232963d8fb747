package explorer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/map-insights/internal/metrics"
	"github.com/sells-group/map-insights/internal/model"
	"github.com/sells-group/map-insights/pkg/arcgis"
)

// ErrSuperseded is returned by a Run method whose response was discarded
// because a newer lookup of the same kind was issued, or because the mode
// that issued it was left.
var ErrSuperseded = eris.New("explorer: lookup superseded")

// Fetcher runs lookups and reconciles their results into the session. Each
// run takes the next generation number for its kind; only the response
// carrying the latest generation is committed.
type Fetcher struct {
	c      *core
	client arcgis.Client

	// Guarded by c.mu.
	gens    map[model.OpKind]uint64
	running map[model.OpKind]context.CancelFunc
}

func newFetcher(c *core, client arcgis.Client) *Fetcher {
	return &Fetcher{
		c:       c,
		client:  client,
		gens:    make(map[model.OpKind]uint64, 3),
		running: make(map[model.OpKind]context.CancelFunc, 3),
	}
}

// RunSearch geocodes query and, on success, selects the first candidate.
// On failure the selected location is left unchanged.
func (f *Fetcher) RunSearch(ctx context.Context, query string) error {
	q := arcgis.NormalizeQuery(query)
	if q == "" {
		var err error
		f.c.mutate(func(st *state) bool {
			err = st.reject(model.NewValidationError("search", eris.New("query is empty")))
			return true
		})
		return err
	}

	gen, ctx, cancel, err := f.begin(ctx, model.OpSearch, nil)
	if err != nil {
		return err
	}
	defer cancel()
	coord, err := f.client.Geocode(ctx, q)
	return f.finish(model.OpSearch, gen, err, func(st *state) {
		st.selected = &coord
	})
}

// RunDemographicLookup enriches point. On success the snapshot is replaced
// and point becomes the selected location and overlay center. It requires
// demographic mode.
func (f *Fetcher) RunDemographicLookup(ctx context.Context, point model.Coordinate) error {
	gen, ctx, cancel, err := f.begin(ctx, model.OpEnrich, requireMode(model.ModeDemographic))
	if err != nil {
		return err
	}
	defer cancel()
	snap, err := f.client.Enrich(ctx, point)
	if err == nil && snap == nil {
		err = model.NewNotFoundError(arcgis.ProviderEnrich, "no demographic data for point")
	}
	return f.finish(model.OpEnrich, gen, err, func(st *state) {
		st.snapshot = snap
		st.selected = &point
	})
}

// RunPlacesLookup searches for places near point and keeps the first one
// for the popup. It requires place-details mode.
func (f *Fetcher) RunPlacesLookup(ctx context.Context, point model.Coordinate) error {
	gen, ctx, cancel, err := f.begin(ctx, model.OpPlaces, requireMode(model.ModePlaceDetails))
	if err != nil {
		return err
	}
	defer cancel()
	places, err := f.client.PlacesNear(ctx, point, f.c.opts.PlacesRadius)
	if err == nil && len(places) == 0 {
		err = model.NewNotFoundError(arcgis.ProviderPlaces, "no places near point")
	}
	return f.finish(model.OpPlaces, gen, err, func(st *state) {
		first := places[0]
		st.place = &first
		st.popupDismissed = false
	})
}

// Generation returns the latest generation issued for kind.
func (f *Fetcher) Generation(kind model.OpKind) uint64 {
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	return f.gens[kind]
}

func requireMode(mode model.Mode) func(st *state) error {
	return func(st *state) error {
		if st.mode != mode {
			return model.NewValidationError("lookup", eris.Errorf("%s mode is not active", mode))
		}
		return nil
	}
}

// begin issues a new generation for kind and marks it loading. guard runs
// under the lock; its error aborts the run without touching state. The
// returned cancel must be called once the lookup returns.
func (f *Fetcher) begin(ctx context.Context, kind model.OpKind, guard func(st *state) error) (uint64, context.Context, context.CancelFunc, error) {
	var (
		gen    uint64
		err    error
		runCtx context.Context
		cancel context.CancelFunc
	)
	f.c.mutate(func(st *state) bool {
		if guard != nil {
			if err = guard(st); err != nil {
				return false
			}
		}
		f.supersedeLocked(kind)

		f.gens[kind]++
		gen = f.gens[kind]

		runCtx, cancel = context.WithCancel(ctx)
		f.running[kind] = cancel

		st.fetches[kind] = model.FetchState{Status: model.FetchLoading, Generation: gen}
		return true
	})
	if err != nil {
		return 0, nil, nil, err
	}
	zap.L().Debug("explorer: lookup started", zap.String("kind", string(kind)), zap.Uint64("generation", gen))
	return gen, runCtx, cancel, nil
}

// finish commits the outcome of generation gen. A stale generation is
// discarded and reported as ErrSuperseded; apply runs only on success.
func (f *Fetcher) finish(kind model.OpKind, gen uint64, lookupErr error, apply func(st *state)) error {
	stale := false
	f.c.mutate(func(st *state) bool {
		if f.gens[kind] != gen {
			stale = true
			return false
		}
		delete(f.running, kind)

		if lookupErr != nil {
			st.fetches[kind] = model.FetchState{
				Status:     model.FetchFailed,
				Reason:     lookupErr.Error(),
				ErrorKind:  model.KindOf(lookupErr),
				Generation: gen,
			}
			st.lastErr = lookupErr
			return true
		}

		apply(st)
		st.fetches[kind] = model.FetchState{Status: model.FetchSucceeded, Generation: gen}
		st.lastErr = nil
		return true
	})

	log := zap.L().With(zap.String("kind", string(kind)), zap.Uint64("generation", gen))
	if stale {
		metrics.SupersededTotal.WithLabelValues(string(kind)).Inc()
		log.Debug("explorer: discarded superseded response", zap.Bool("failed", lookupErr != nil))
		return ErrSuperseded
	}
	if lookupErr != nil {
		log.Warn("explorer: lookup failed", zap.Error(lookupErr))
		return lookupErr
	}
	log.Debug("explorer: lookup committed")
	return nil
}

// abandonLocked invalidates any in-flight lookup of kind so its response is
// discarded, and returns the kind to idle. Callers hold c.mu.
func (f *Fetcher) abandonLocked(st *state, kind model.OpKind) {
	f.supersedeLocked(kind)
	f.gens[kind]++
	st.fetches[kind] = model.FetchState{Status: model.FetchIdle, Generation: f.gens[kind]}
}

// supersedeLocked cancels the running lookup of kind when cancellation is
// enabled. The transport call is otherwise left to finish on its own.
func (f *Fetcher) supersedeLocked(kind model.OpKind) {
	cancel, ok := f.running[kind]
	if !ok {
		return
	}
	delete(f.running, kind)
	if f.c.opts.CancelSuperseded {
		cancel()
	}
}
