package http

import (
	"log/slog"
	"net/http"

	"github.com/Penlika/CoffeeShopApp/internal/service"
	"github.com/Penlika/CoffeeShopApp/pkg/httputil"
)

// RatingHandler handles HTTP requests for item comments and ratings.
type RatingHandler struct {
	service *service.RatingService
	logger  *slog.Logger
}

// NewRatingHandler creates a new rating HTTP handler.
func NewRatingHandler(svc *service.RatingService, logger *slog.Logger) *RatingHandler {
	return &RatingHandler{
		service: svc,
		logger:  logger,
	}
}

// SubmitRatingRequest is the JSON body for PUT .../comments/me.
type SubmitRatingRequest struct {
	Comment string `json:"comment" validate:"max=2000"`
	Rating  int    `json:"rating" validate:"gte=0,lte=5"`
}

// ListComments handles GET /api/v1/items/{kind}/{id}/comments
func (h *RatingHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListComments(r.Context(), sessionFrom(r), itemRefFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}

// SubmitRating handles PUT /api/v1/items/{kind}/{id}/comments/me
func (h *RatingHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	var req SubmitRatingRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	result, err := h.service.SubmitRating(r.Context(), sessionFrom(r), itemRefFrom(r), req.Comment, req.Rating)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}

// DeleteRating handles DELETE /api/v1/items/{kind}/{id}/comments/me
func (h *RatingHandler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.DeleteRating(r.Context(), sessionFrom(r), itemRefFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}
