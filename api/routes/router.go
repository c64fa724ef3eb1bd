package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inkwellbooks/inkwell-backend/api/controllers"
	"github.com/inkwellbooks/inkwell-backend/api/middleware"
	"github.com/inkwellbooks/inkwell-backend/internal/cart"
	checkoutsvc "github.com/inkwellbooks/inkwell-backend/internal/checkout"
	"github.com/inkwellbooks/inkwell-backend/internal/orders"
	"github.com/inkwellbooks/inkwell-backend/internal/payments"
	"github.com/inkwellbooks/inkwell-backend/internal/preorder"
	"github.com/inkwellbooks/inkwell-backend/pkg/config"
	"github.com/inkwellbooks/inkwell-backend/pkg/db"
	"github.com/inkwellbooks/inkwell-backend/pkg/logger"
	"github.com/inkwellbooks/inkwell-backend/pkg/redis"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	Cart     cart.Service
	Checkout checkoutsvc.Service
	Orders   orders.Service
	Payments payments.Service
	PreOrder preorder.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	// A nil redis client (tests, degraded boot) disables replay and throttling
	// rather than panicking on a typed-nil interface.
	passthrough := func(next http.Handler) http.Handler { return next }
	idempotency := passthrough
	limit := func(middleware.RateLimitPolicy) func(http.Handler) http.Handler { return passthrough }
	if redisClient != nil {
		idempotency = middleware.Idempotency(redisClient, logg)
		limit = func(policy middleware.RateLimitPolicy) func(http.Handler) http.Handler {
			return middleware.RateLimit(policy, redisClient, logg)
		}
	}

	checkoutPolicy := middleware.RateLimitPolicy{
		Name:   "checkout",
		Window: cfg.RateLimit.CheckoutWindow,
		Limit:  cfg.RateLimit.CheckoutLimit,
	}
	mutationsPolicy := middleware.RateLimitPolicy{
		Name:   "mutations",
		Window: cfg.RateLimit.MutationsWindow,
		Limit:  cfg.RateLimit.MutationsLimit,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(idempotency)

		r.Route("/cart", func(r chi.Router) {
			r.Use(limit(mutationsPolicy))
			r.Get("/", controllers.CartFetch(svcs.Cart, logg))
			r.Post("/add", controllers.CartAdd(svcs.Cart, logg))
			r.Post("/update", controllers.CartUpdate(svcs.Cart, logg))
			r.Post("/remove", controllers.CartRemove(svcs.Cart, logg))
			r.Post("/toggle_save", controllers.CartToggleSave(svcs.Cart, logg))
		})

		r.With(limit(checkoutPolicy)).
			Post("/checkout", controllers.Checkout(svcs.Checkout, logg))

		r.Route("/preorder", func(r chi.Router) {
			r.Use(limit(mutationsPolicy))
			r.Get("/", controllers.PreOrderList(svcs.PreOrder, logg))
			r.Post("/confirm", controllers.PreOrderConfirm(svcs.PreOrder, logg))
			r.Post("/cancel", controllers.PreOrderCancel(svcs.PreOrder, logg))
			r.Post("/available", controllers.PreOrderMarkAvailable(svcs.PreOrder, logg))
			r.Post("/shipped", controllers.PreOrderMarkShipped(svcs.PreOrder, logg))
			r.Post("/delivered", controllers.PreOrderMarkDelivered(svcs.PreOrder, logg))
			r.Post("/fulfill", controllers.PreOrderFulfill(svcs.PreOrder, logg))
		})

		r.Route("/payment", func(r chi.Router) {
			r.Use(limit(mutationsPolicy))
			r.Post("/create", controllers.PaymentCreate(svcs.Payments, logg))
			r.Post("/complete", controllers.PaymentComplete(svcs.Payments, logg))
			r.Post("/refund", controllers.PaymentRefund(svcs.Payments, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderFetch(svcs.Orders, logg))
		})
	})

	return r
}
