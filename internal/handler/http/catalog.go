package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/internal/service"
	"github.com/Penlika/CoffeeShopApp/pkg/httputil"
	"github.com/Penlika/CoffeeShopApp/pkg/pagination"
)

// CatalogHandler handles HTTP requests for catalog endpoints.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// ListItems handles GET /api/v1/items/{kind}
func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	kind := domain.ItemKind(chi.URLParam(r, "kind"))

	result, err := h.service.ListItems(r.Context(), kind, r.URL.Query().Get("name"), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// ListCategories handles GET /api/v1/items/{kind}/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	kind := domain.ItemKind(chi.URLParam(r, "kind"))

	categories, err := h.service.ListCategories(r.Context(), kind)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, categories)
}

// GetItem handles GET /api/v1/items/{kind}/{id}
func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(r.Context(), itemRefFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, item)
}
