package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rl1809/cart-sync/internal/core/service"
)

// HTTPHandler exposes the cart store to a UI layer. It assumes the
// client issues one mutating call at a time; interleaved mutations hit
// the store's documented read-modify-write race.
type HTTPHandler struct {
	store *service.CartStore
}

type AddProductRequest struct {
	ProductID int64 `json:"product_id"`
}

type UpdateAmountRequest struct {
	Amount int `json:"amount"`
}

type CartResponse struct {
	Items    interface{} `json:"items"`
	Revision string      `json:"revision"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewHTTPHandler(store *service.CartStore) *HTTPHandler {
	return &HTTPHandler{store: store}
}

// Routes mounts the cart API on a fresh chi router.
func (h *HTTPHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", h.HealthCheck)
	r.Route("/api", func(r chi.Router) {
		r.Get("/cart", h.GetCart)
		r.Post("/cart/items", h.AddProduct)
		r.Put("/cart/items/{productID}", h.UpdateAmount)
		r.Delete("/cart/items/{productID}", h.RemoveProduct)
		r.Get("/stock", h.GetStock)
		r.Post("/stock/refresh", h.RefreshStock)
	})
	return r
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.respondCart(w, http.StatusOK)
}

func (h *HTTPHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Stock())
}

func (h *HTTPHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req AddProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.ProductID <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "product_id must be positive"})
		return
	}

	if err := h.store.AddProduct(r.Context(), req.ProductID); err != nil {
		respondOperationError(w, err, "could not add product")
		return
	}

	h.respondCart(w, http.StatusCreated)
}

func (h *HTTPHandler) UpdateAmount(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.store.UpdateProductAmount(r.Context(), productID, req.Amount); err != nil {
		respondOperationError(w, err, "could not update quantity")
		return
	}

	h.respondCart(w, http.StatusOK)
}

func (h *HTTPHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	if err := h.store.RemoveProduct(r.Context(), productID); err != nil {
		respondOperationError(w, err, "could not remove product")
		return
	}

	h.respondCart(w, http.StatusOK)
}

// RefreshStock triggers a snapshot refresh. Refresh failures are
// deliberately invisible here: the store logs and keeps the previous
// snapshot, so the response is 202 either way.
func (h *HTTPHandler) RefreshStock(w http.ResponseWriter, r *http.Request) {
	h.store.RefreshStock(r.Context())
	w.WriteHeader(http.StatusAccepted)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) respondCart(w http.ResponseWriter, status int) {
	rev := h.store.Revision().String()
	w.Header().Set("ETag", `"`+rev+`"`)
	writeJSON(w, status, CartResponse{Items: h.store.Items(), Revision: rev})
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
		return 0, false
	}
	return productID, true
}

func respondOperationError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "could not add product"})
	case errors.Is(err, service.ErrInsufficientStock):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "requested quantity exceeds available stock"})
	case errors.Is(err, service.ErrProductNotInCart):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: fallback})
	case errors.Is(err, service.ErrInvalidAmount):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "could not update quantity"})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: fallback})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
