package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Penlika/CoffeeShopApp/internal/service"
	"github.com/Penlika/CoffeeShopApp/pkg/health"
	"github.com/Penlika/CoffeeShopApp/pkg/middleware"
)

const serviceName = "coffeeshop"

// Services groups the use cases exposed over HTTP.
type Services struct {
	Catalog   *service.CatalogService
	Ratings   *service.RatingService
	Cart      *service.CartService
	Favorites *service.FavoriteService
	Cards     *service.CardService
	Checkout  *service.CheckoutService
}

// RouterConfig holds the edge settings of the router.
type RouterConfig struct {
	PprofCIDRs     []string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates a chi router with all storefront routes registered.
// ctx bounds the lifetime of the rate limiter's background cleanup.
func NewRouter(
	ctx context.Context,
	svcs Services,
	feeds Subscriber,
	validate middleware.TokenValidator,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.CORSOrigins}))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	catalog := NewCatalogHandler(svcs.Catalog, logger)
	ratings := NewRatingHandler(svcs.Ratings, logger)
	cart := NewCartHandler(svcs.Cart, logger)
	favorites := NewFavoriteHandler(svcs.Favorites, logger)
	account := NewAccountHandler(svcs.Cards, svcs.Checkout, logger)
	streams := NewStreamHandler(feeds, logger)

	requireAuth := middleware.Auth(validate, logger)
	optionalAuth := middleware.OptionalAuth(validate, logger)
	limit := middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Live feeds stay open, so they get neither the request timeout
		// nor compression.
		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.With(optionalAuth, middleware.RequestLogger(logger), limit).
				Get("/items/{kind}/{id}/comments/stream", streams.Comments)
			r.With(requireAuth, middleware.RequestLogger(logger), limit).
				Get("/cart/stream", streams.Cart)
		})

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(30 * time.Second))
			r.Use(chimw.Compress(5))

			// Catalog and comments, readable without signing in.
			r.Group(func(r chi.Router) {
				r.Use(optionalAuth)
				r.Use(middleware.RequestLogger(logger))
				r.Use(limit)

				r.With(middleware.CacheControl(60)).Get("/items/{kind}", catalog.ListItems)
				r.With(middleware.CacheControl(300)).Get("/items/{kind}/categories", catalog.ListCategories)
				r.With(middleware.CacheControl(60)).Get("/items/{kind}/{id}", catalog.GetItem)
				r.With(middleware.NoStore).Get("/items/{kind}/{id}/comments", ratings.ListComments)
			})

			// Everything that belongs to the signed-in user.
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Use(middleware.RequestLogger(logger))
				r.Use(limit)
				r.Use(middleware.NoStore)

				r.Put("/items/{kind}/{id}/comments/me", ratings.SubmitRating)
				r.Delete("/items/{kind}/{id}/comments/me", ratings.DeleteRating)

				r.Get("/cart", cart.GetCart)
				r.Delete("/cart", cart.ClearCart)
				r.Post("/cart/lines", cart.AddLine)
				r.Post("/cart/lines/{lineId}/increment", cart.Increment)
				r.Post("/cart/lines/{lineId}/decrement", cart.Decrement)
				r.Delete("/cart/lines/{lineId}", cart.RemoveLine)

				r.Get("/favorites", favorites.List)
				r.Post("/favorites/{kind}/{id}", favorites.Add)
				r.Delete("/favorites/{kind}/{id}", favorites.Remove)

				r.Get("/me/card", account.GetCard)
				r.Put("/me/card", account.SaveCard)

				r.Post("/checkout", account.BeginCheckout)
				r.Post("/checkout/{orderId}/capture", account.Capture)
				r.Post("/checkout/{orderId}/cancel", account.Cancel)
				r.Get("/orders", account.ListOrders)
			})
		})
	})

	return r
}
