package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/internal/service"
	"github.com/Penlika/CoffeeShopApp/pkg/httputil"
	"github.com/Penlika/CoffeeShopApp/pkg/pagination"
)

// AccountHandler handles the caller's saved card, checkout and order history.
type AccountHandler struct {
	cards    *service.CardService
	checkout *service.CheckoutService
	logger   *slog.Logger
}

// NewAccountHandler creates a new account HTTP handler.
func NewAccountHandler(cards *service.CardService, checkout *service.CheckoutService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		cards:    cards,
		checkout: checkout,
		logger:   logger,
	}
}

// CaptureRequest is the JSON body for POST /api/v1/checkout/{orderId}/capture.
type CaptureRequest struct {
	PayerID string `json:"payer_id" validate:"required,max=64"`
}

// GetCard handles GET /api/v1/me/card
func (h *AccountHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.cards.Get(r.Context(), sessionFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, card)
}

// SaveCard handles PUT /api/v1/me/card
func (h *AccountHandler) SaveCard(w http.ResponseWriter, r *http.Request) {
	var details domain.CardDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		httputil.WriteBadRequest(w, r, "invalid request body: "+err.Error())
		return
	}

	card, err := h.cards.Save(r.Context(), sessionFrom(r), details)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, card)
}

// BeginCheckout handles POST /api/v1/checkout
func (h *AccountHandler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	result, err := h.checkout.Begin(r.Context(), sessionFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, result)
}

// Capture handles POST /api/v1/checkout/{orderId}/capture
func (h *AccountHandler) Capture(w http.ResponseWriter, r *http.Request) {
	var req CaptureRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	order, err := h.checkout.Complete(r.Context(), sessionFrom(r), chi.URLParam(r, "orderId"), req.PayerID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, order)
}

// Cancel handles POST /api/v1/checkout/{orderId}/cancel
func (h *AccountHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	order, err := h.checkout.Cancel(r.Context(), sessionFrom(r), chi.URLParam(r, "orderId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, order)
}

// ListOrders handles GET /api/v1/orders
func (h *AccountHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.checkout.ListOrders(r.Context(), sessionFrom(r), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
