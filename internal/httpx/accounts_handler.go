package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/preloved/marketplace/internal/market"
)

// AccountsHandler serves customer and seller CRUD.
type AccountsHandler struct {
	Store market.Store
	Log   *zap.Logger
}

func (h *AccountsHandler) Register(r *chi.Mux) {
	r.Post("/customers", h.createCustomer)
	r.Get("/customers", h.listCustomers)
	r.Get("/customers/{id}", h.getCustomer)

	r.Post("/sellers", h.createSeller)
	r.Get("/sellers", h.listSellers)
	r.Get("/sellers/{id}", h.getSeller)
}

func (h *AccountsHandler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var c market.Customer
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if c.Username == "" || c.Email == "" {
		badRequest(w, "username and email are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if _, err := h.Store.Customers().Create(ctx, &c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *AccountsHandler) listCustomers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	customers, err := h.Store.Customers().ListAll(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *AccountsHandler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Store.Customers().GetByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *AccountsHandler) createSeller(w http.ResponseWriter, r *http.Request) {
	var s market.Seller
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if s.Name == "" {
		badRequest(w, "seller_name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if _, err := h.Store.Sellers().Create(ctx, &s); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *AccountsHandler) listSellers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	sellers, err := h.Store.Sellers().ListAll(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sellers)
}

func (h *AccountsHandler) getSeller(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, err := h.Store.Sellers().GetByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
