package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/preloved/marketplace/internal/market"
	"github.com/preloved/marketplace/internal/redisx"
)

type OrdersHandler struct {
	Engine *market.Engine
	Redis  *redis.Client
	Log    *zap.Logger
}

type createOrderReq struct {
	CustomerID   int64              `json:"cus_id"`
	Items        []market.ItemInput `json:"items"`
	ShippingCost *int64             `json:"shipping_cost"` // defaults when omitted
}

type setStatusReq struct {
	Status market.Status `json:"status"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/items", h.getOrderItems)
	r.Put("/orders/{id}/cancel", h.cancelOrder)
	r.Patch("/orders/{id}/status", h.setStatus)

	r.Post("/payments", h.recordPayment)
	r.Get("/payments", h.listPayments)
	r.Get("/payments/{id}", h.getPayment)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	shipping := market.DefaultShippingCost
	if req.ShippingCost != nil {
		shipping = *req.ShippingCost
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	detail, err := h.Engine.CreateOrder(ctx, market.CreateOrderInput{
		CustomerID:   req.CustomerID,
		Items:        req.Items,
		ShippingCost: shipping,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.cacheOrder(ctx, detail)
	writeJSON(w, http.StatusCreated, detail)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	orders, err := h.Engine.ListOrders(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache first, DB is the source of truth
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, id)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	detail, err := h.Engine.GetOrder(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheOrder(ctx, detail)
	writeJSON(w, http.StatusOK, detail)
}

func (h *OrdersHandler) getOrderItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	detail, err := h.Engine.GetOrder(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail.Items)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Engine.CancelOrder(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	h.dropCache(ctx, id)
	writeJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req setStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Engine.SetOrderStatus(ctx, id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	h.dropCache(ctx, id)
	writeJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req market.RecordPaymentInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	payment, err := h.Engine.RecordPayment(ctx, req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.dropCache(ctx, req.OrderID)
	writeJSON(w, http.StatusCreated, payment)
}

func (h *OrdersHandler) listPayments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	payments, err := h.Engine.ListPayments(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (h *OrdersHandler) getPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	payment, err := h.Engine.GetPayment(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *OrdersHandler) cacheOrder(ctx context.Context, detail *market.OrderDetail) {
	if h.Redis == nil {
		return
	}
	b, err := json.Marshal(detail)
	if err != nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, detail.ID)
	if err := h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err(); err != nil {
		h.Log.Warn("order cache set", zap.Int64("order_id", detail.ID), zap.Error(err))
	}
}

func (h *OrdersHandler) dropCache(ctx context.Context, orderID int64) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if err := h.Redis.Del(ctx, key).Err(); err != nil {
		h.Log.Warn("order cache drop", zap.Int64("order_id", orderID), zap.Error(err))
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}
