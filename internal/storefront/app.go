// Package storefront assembles the catalog, cart and checkout servers into
// the single HTTP surface the storefront exposes.
package storefront

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"Storefront/internal/cart"
	"Storefront/internal/catalog"
	"Storefront/internal/checkout"
	"Storefront/internal/kv"
	"Storefront/pkg/kit"
)

const readyTimeout = 1 * time.Second

type Deps struct {
	Catalog  *catalog.Server
	Cart     *cart.Server
	Checkout *checkout.Server

	// Store is the persistence backing both engines; readyz pings it.
	Store kv.Store
}

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	// Checkout is rate limited per client IP; zero values disable the limit.
	CheckoutLimit      int
	CheckoutWindowSecs int
}

func NewHandler(deps Deps, httpDeps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	setupMiddleware(r, httpDeps)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", readyz(deps, httpDeps.Log))

	deps.Catalog.Register(r)
	deps.Cart.Register(r)

	r.Group(func(pr chi.Router) {
		if httpDeps.CheckoutLimit > 0 {
			limiter := kit.NewIPRateLimiter(httpDeps.CheckoutLimit, httpDeps.CheckoutWindowSecs)
			pr.Use(limiter.Middleware)
		}
		deps.Checkout.Register(pr)
	})

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func readyz(deps Deps, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := deps.Store.Ping(ctx); err != nil {
			if log != nil {
				log.Warn("readyz failed: store", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "store not ready", nil)
			return
		}

		if !deps.Catalog.Store.Loaded() {
			kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog not loaded", nil)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}
