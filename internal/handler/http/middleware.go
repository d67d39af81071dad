package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Penlika/CoffeeShopApp/internal/domain"
	"github.com/Penlika/CoffeeShopApp/pkg/httputil"
	"github.com/Penlika/CoffeeShopApp/pkg/middleware"
	"github.com/Penlika/CoffeeShopApp/pkg/validator"
)

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// sessionFrom returns the caller set by the auth middleware. Anonymous
// requests get the zero Session.
func sessionFrom(r *http.Request) domain.Session {
	c := middleware.ClaimsFromContext(r.Context())
	if c == nil {
		return domain.Session{}
	}
	return domain.Session{UserID: c.UserID, Email: c.Email}
}

func itemRefFrom(r *http.Request) domain.ItemRef {
	return domain.ItemRef{
		Kind: domain.ItemKind(chi.URLParam(r, "kind")),
		ID:   chi.URLParam(r, "id"),
	}
}

// decodeBody decodes and validates a JSON body, writing the error response
// itself when it returns false. An empty body decodes to the zero value.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, logger *slog.Logger) bool {
	var err error
	if r.Body != nil && r.ContentLength != 0 {
		err = validator.DecodeAndValidate(r, dst)
	} else {
		err = validator.Validate(dst)
	}
	if err == nil {
		return true
	}

	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		httputil.WriteError(w, r, verr, logger)
	} else {
		httputil.WriteBadRequest(w, r, "invalid request body: "+err.Error())
	}
	return false
}
