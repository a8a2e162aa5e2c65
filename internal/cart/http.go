package cart

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Storefront/internal/catalog"
	"Storefront/pkg/kit"
)

const maxBody = 1 << 20

type Server struct {
	Engine  *Engine
	Catalog *catalog.Store
	Log     *zap.Logger
}

type cartView struct {
	Items []Entry `json:"items"`
	Count int     `json:"count"`
}

type addReq struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type updateReq struct {
	Qty int `json:"qty"`
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

func (s *Server) Register(r chi.Router) {
	r.Get("/cart", s.get)
	r.Get("/cart/totals", s.totals)
	r.Post("/cart/items", s.add)
	r.Put("/cart/items/{id}", s.update)
	r.Delete("/cart/items/{id}", s.remove)
	r.Delete("/cart", s.clear)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	entries := s.Engine.Items(r.Context())
	kit.WriteJSON(w, http.StatusOK, cartView{Items: entries, Count: countItems(entries)})
}

func (s *Server) totals(w http.ResponseWriter, r *http.Request) {
	entries := s.Engine.Items(r.Context())
	kit.WriteJSON(w, http.StatusOK, CalculateTotals(entries, s.Catalog.Products()))
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	var req addReq
	if err := decodeBody(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if req.ProductID == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "product_id required", nil)
		return
	}

	if err := s.Engine.AddItem(r.Context(), req.ProductID, req.Qty); err != nil {
		s.writeStoreError(w, r, "add item", err)
		return
	}
	s.get(w, r)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	var req updateReq
	if err := decodeBody(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	if err := s.Engine.UpdateQty(r.Context(), chi.URLParam(r, "id"), req.Qty); err != nil {
		s.writeStoreError(w, r, "update qty", err)
		return
	}
	s.get(w, r)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.RemoveItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeStoreError(w, r, "remove item", err)
		return
	}
	s.get(w, r)
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Clear(r.Context()); err != nil {
		s.writeStoreError(w, r, "clear cart", err)
		return
	}
	s.get(w, r)
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if s.Log != nil {
		s.Log.Error("cart store write failed", zap.String("op", op), zap.Error(err))
	}
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}

func countItems(entries []Entry) int {
	n := 0
	for _, e := range entries {
		n += e.Qty
	}
	return n
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after json object")
	}
	return nil
}
