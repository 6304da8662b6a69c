package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/shopfront-backend/api/controllers"
	"github.com/angelmondragon/shopfront-backend/api/middleware"
	"github.com/angelmondragon/shopfront-backend/internal/cart"
	"github.com/angelmondragon/shopfront-backend/internal/favorites"
	"github.com/angelmondragon/shopfront-backend/internal/orders"
	"github.com/angelmondragon/shopfront-backend/internal/products"
	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
	"github.com/angelmondragon/shopfront-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers. Redis is optional;
// without it idempotency and rate limiting are disabled.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Products  products.Service
	Cart      cart.Service
	Favorites favorites.Service
	Orders    orders.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	var (
		idempotencyStore redis.IdempotencyStore
		limiter          *redis.Client
		checks           = []controllers.ReadinessCheck{}
	)
	if deps.DB != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "database", Ping: deps.DB.Ping})
	}
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
		limiter = deps.Redis
		checks = append(checks, controllers.ReadinessCheck{Name: "redis", Ping: deps.Redis.Ping})
	}

	writePolicy := middleware.NewRateLimitPolicy(
		"writes",
		cfg.RateLimit.Window,
		cfg.RateLimit.IPLimit,
		cfg.RateLimit.UserLimit,
		"/api/cart", "/api/favorites", "/api/orders",
	)

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		deps.HTTPMetrics.Middleware(),
		middleware.CORS(cfg.HTTP.AllowedOrigins()),
	)

	r.Get("/", controllers.Root())
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks...))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.UserScope(logg))
		if limiter != nil {
			r.Use(middleware.RateLimit(writePolicy, limiter, logg))
		}
		idempotent := middleware.Idempotency(idempotencyStore, logg)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.Get("/{id}", controllers.ProductDetail(deps.Products, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartList(deps.Cart, logg))
			r.With(idempotent).Post("/", controllers.CartAdd(deps.Cart, logg))
			r.Delete("/{id}", controllers.CartRemove(deps.Cart, logg))
			r.Patch("/{id}", controllers.CartAdjust(deps.Cart, logg))
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", controllers.FavoriteList(deps.Favorites, logg))
			r.With(idempotent).Post("/", controllers.FavoriteAdd(deps.Favorites, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(deps.Orders, logg))
			r.With(idempotent).Post("/", controllers.OrderPlace(deps.Orders, logg))
		})
	})

	return r
}
