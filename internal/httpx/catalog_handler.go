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

// CatalogHandler serves product CRUD and search. These are plain collection
// reads and writes; only the workflow engine ever changes a product's status.
type CatalogHandler struct {
	Store market.Store
	Log   *zap.Logger
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Post("/products", h.createProduct)
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Put("/products/{id}", h.updateProduct)
	r.Post("/products/search", h.searchProducts)
}

func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var p market.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if p.Name == "" {
		badRequest(w, "pname is required")
		return
	}
	if p.Status != "" && p.Status != market.ProductAvailable &&
		p.Status != market.ProductReserved && p.Status != market.ProductSold {
		badRequest(w, "unknown product_status")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if _, err := h.Store.Products().Create(ctx, &p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	products, err := h.Store.Products().List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Store.Products().GetByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p market.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		badRequest(w, "invalid json")
		return
	}
	p.ID = id

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Store.Products().Update(ctx, &p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) searchProducts(w http.ResponseWriter, r *http.Request) {
	var q market.ProductSearch
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if err := q.Normalize(); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	page, err := h.Store.Products().Search(ctx, q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
