package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/internal/service"
	"github.com/Penlika/CoffeeShopApp/pkg/httputil"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// AddLineRequest is the JSON body for POST /api/v1/cart/lines. An empty
// size selects the item's first size.
type AddLineRequest struct {
	Kind   string `json:"kind" validate:"required"`
	ItemID string `json:"item_id" validate:"required"`
	Size   string `json:"size" validate:"max=20"`
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), sessionFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, cart)
}

// AddLine handles POST /api/v1/cart/lines
func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req AddLineRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	ref := domain.ItemRef{Kind: domain.ItemKind(req.Kind), ID: req.ItemID}
	cart, err := h.service.AddItem(r.Context(), sessionFrom(r), ref, req.Size)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, cart)
}

// Increment handles POST /api/v1/cart/lines/{lineId}/increment
func (h *CartHandler) Increment(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, r)(h.service.IncrementQuantity(r.Context(), sessionFrom(r), chi.URLParam(r, "lineId")))
}

// Decrement handles POST /api/v1/cart/lines/{lineId}/decrement
func (h *CartHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, r)(h.service.DecrementQuantity(r.Context(), sessionFrom(r), chi.URLParam(r, "lineId")))
}

// RemoveLine handles DELETE /api/v1/cart/lines/{lineId}
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, r)(h.service.RemoveLine(r.Context(), sessionFrom(r), chi.URLParam(r, "lineId")))
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCart(r.Context(), sessionFrom(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) writeCart(w http.ResponseWriter, r *http.Request) func(*domain.Cart, error) {
	return func(cart *domain.Cart, err error) {
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		httputil.WriteData(w, http.StatusOK, cart)
	}
}
