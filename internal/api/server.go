// Package api exposes exploration sessions over HTTP. Each command endpoint
// applies one session command and answers with the resulting view; the
// events endpoint streams the view over a WebSocket after every change.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sells-group/map-insights/internal/metrics"
	"github.com/sells-group/map-insights/internal/resilience"
)

// Options configures the HTTP surface.
type Options struct {
	// AllowedOrigins lists the CORS and WebSocket origins. "*" allows any.
	AllowedOrigins []string
	// PingInterval is how often event streams are pinged.
	PingInterval time.Duration
	// Breakers, when set, has its provider states reported by /health.
	Breakers *resilience.Registry
}

// Server routes session commands to the registry.
type Server struct {
	reg      *Registry
	opts     Options
	validate *validator.Validate
	upgrader websocket.Upgrader
}

// NewServer creates the API server over reg.
func NewServer(reg *Registry, opts Options) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	s := &Server{
		reg:      reg,
		opts:     opts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.withSession(s.handleView))
			r.Delete("/", s.handleDelete)
			r.Put("/style", s.withSession(s.handleStyle))
			r.Post("/modes/demographic/toggle", s.withSession(s.handleToggleDemographic))
			r.Post("/modes/places/toggle", s.withSession(s.handleTogglePlaces))
			r.Post("/search", s.withSession(s.handleSearch))
			r.Post("/press", s.withSession(s.handlePress))
			r.Post("/region", s.withSession(s.handleRegion))
			r.Post("/zoom/in", s.withSession(s.handleZoomIn))
			r.Post("/zoom/out", s.withSession(s.handleZoomOut))
			r.Post("/popup/dismiss", s.withSession(s.handleDismissPopup))
			r.Get("/events", s.handleEvents)
		})
	})
	return r
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.opts.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// accessLog logs one line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
