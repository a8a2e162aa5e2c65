package catalog

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Storefront/pkg/kit"
)

const loadTimeout = 10 * time.Second

type Server struct {
	Store  *Store
	Loader *Loader
	Log    *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

func (s *Server) Register(r chi.Router) {
	r.Get("/products", s.list)
	r.Get("/products/{id}", s.get)
	r.Get("/categories", s.categories)
	r.Post("/catalog/reload", s.reload)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	if !s.Store.Loaded() {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, s.Store.Query(queryFromRequest(r)))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	if !s.Store.Loaded() {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
		return
	}

	id := chi.URLParam(r, "id")
	p, ok := s.Store.Get(id)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	if !s.Store.Loaded() {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Store.Categories())
}

func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), loadTimeout)
	defer cancel()

	if err := s.Loader.Load(ctx); err != nil {
		if s.Log != nil {
			s.Log.Error("catalog reload failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{"products": s.Store.Len()})
}

// queryFromRequest maps URL parameters onto a Query. The category filter is
// applied only when the parameter is present, so ?category= filters on the
// empty category rather than meaning "no filter".
func queryFromRequest(r *http.Request) Query {
	vals := r.URL.Query()

	q := Query{
		Page:    intParam(vals.Get("page"), 1),
		PerPage: intParam(vals.Get("per_page"), defaultPerPage),
		Search:  vals.Get("q"),
		Sort:    SortKey(vals.Get("sort")),
	}
	if vals.Has("category") {
		c := vals.Get("category")
		q.Category = &c
	}
	return q
}

func intParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
