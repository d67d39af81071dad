package http

import (
	"log/slog"
	"net/http"

	"github.com/Penlika/CoffeeShopApp/internal/service"
	"github.com/Penlika/CoffeeShopApp/pkg/httputil"
)

// FavoriteHandler handles HTTP requests for favorites.
type FavoriteHandler struct {
	service *service.FavoriteService
	logger  *slog.Logger
}

// NewFavoriteHandler creates a new favorite HTTP handler.
func NewFavoriteHandler(svc *service.FavoriteService, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{
		service: svc,
		logger:  logger,
	}
}

// List handles GET /api/v1/favorites
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	favs, err := h.service.List(r.Context(), sessionFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, favs)
}

// Add handles POST /api/v1/favorites/{kind}/{id}
func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Add(r.Context(), sessionFrom(r), itemRefFrom(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Remove handles DELETE /api/v1/favorites/{kind}/{id}
func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), sessionFrom(r), itemRefFrom(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
