package checkout

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"Storefront/internal/cart"
	"Storefront/internal/catalog"
	"Storefront/pkg/kit"
)

const maxBody = 1 << 20

type Server struct {
	Cart    *cart.Engine
	Catalog *catalog.Store
	Phone   string
	Log     *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

func (s *Server) Register(r chi.Router) {
	r.Post("/checkout", s.create)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	entries := s.Cart.Items(r.Context())

	order, err := Build("o_"+uuid.NewString(), req, entries, s.Catalog.Products())
	if err != nil {
		s.writeBuildError(w, r, err)
		return
	}
	order.URL = Link(s.Phone, order.Message)

	// The order leaves as a message; the only local effect is the emptied
	// cart, and listeners hear about it like any other mutation.
	if err := s.Cart.Clear(r.Context()); err != nil {
		if s.Log != nil {
			s.Log.Error("clear cart after checkout failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	if s.Log != nil {
		s.Log.Info("checkout handed off",
			zap.String("order_ref", order.Ref),
			zap.Float64("total", order.Totals.Total),
		)
	}
	kit.WriteJSON(w, http.StatusCreated, order)
}

func (s *Server) writeBuildError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrMissingField):
		kit.WriteError(w, r, http.StatusBadRequest, "name, email and address are required", nil)
	case errors.Is(err, ErrBadEmail):
		kit.WriteError(w, r, http.StatusBadRequest, "invalid email", nil)
	case errors.Is(err, ErrEmptyCart):
		kit.WriteError(w, r, http.StatusBadRequest, "cart empty", nil)
	default:
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req Request
	if err := dec.Decode(&req); err != nil {
		return Request{}, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return Request{}, errors.New("extra data after json object")
	}
	return req, nil
}
