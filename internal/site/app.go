package site

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"Zaiqa/internal/session"
	"Zaiqa/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled   bool
	MetricsTokenHash string

	AllowedOrigins []string

	Sessions       *session.TokenMaker
	SessionOptions session.Options

	// Nil limiters leave the endpoint unlimited.
	ReservationLimiter *kit.IPRateLimiter
	CheckoutLimiter    *kit.IPRateLimiter
}

const readyTimeout = 1 * time.Second

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if s.Log == nil {
		s.Log = deps.Log
	}

	r := chi.NewRouter()

	setupMiddleware(r, deps)
	setupMetrics(r, deps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", s.readyz)

	r.Route("/api", func(api chi.Router) {
		api.Use(session.Middleware(deps.Sessions, deps.SessionOptions))
		setupRoutes(api, s, deps)
	})

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))

	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePattern))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsTokenHash)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func setupRoutes(api chi.Router, s *Server, deps HTTPDeps) {
	api.Get("/page", s.loadPage)

	api.Get("/menu", s.Menu.ListHandler())
	api.Get("/menu/{id}", s.Menu.GetHandler())
	api.Post("/menu/{id}/open", s.openProduct)

	api.Post("/overlays/{name}/close", s.closeOverlay)
	api.Post("/lightbox", s.openLightbox)
	api.Post("/nav", s.setNav)

	api.Route("/cart", func(cr chi.Router) {
		cr.Get("/", s.pageState)
		cr.Post("/items", s.addItem)
		cr.Post("/items/{name}/increase", s.increase)
		cr.Post("/items/{name}/decrease", s.decrease)
		cr.Delete("/items/{name}", s.removeItem)
		cr.Post("/open", s.openCart)
		cr.Post("/close", s.closeCart)
		cr.With(limit(deps.CheckoutLimiter)).Post("/checkout", s.checkout)
	})

	api.With(limit(deps.ReservationLimiter)).Post("/reservations", s.reserve)

	api.Get("/theme", s.pageState)
	api.Post("/theme", s.toggleTheme)
}

func limit(l *kit.IPRateLimiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return l.Middleware
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	for name, p := range s.Ready {
		if err := p.Ping(ctx); err != nil {
			s.Log.Warn("readyz failed", zap.String("dependency", name), zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, name+" not ready", nil)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}
