package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/inkwellbooks/inkwell-backend/api/routes"
	"github.com/inkwellbooks/inkwell-backend/internal/cart"
	"github.com/inkwellbooks/inkwell-backend/internal/catalog"
	checkoutsvc "github.com/inkwellbooks/inkwell-backend/internal/checkout"
	"github.com/inkwellbooks/inkwell-backend/internal/inventory"
	ordersvc "github.com/inkwellbooks/inkwell-backend/internal/orders"
	"github.com/inkwellbooks/inkwell-backend/internal/payments"
	"github.com/inkwellbooks/inkwell-backend/internal/preorder"
	"github.com/inkwellbooks/inkwell-backend/pkg/config"
	"github.com/inkwellbooks/inkwell-backend/pkg/db"
	"github.com/inkwellbooks/inkwell-backend/pkg/logger"
	"github.com/inkwellbooks/inkwell-backend/pkg/metrics"
	"github.com/inkwellbooks/inkwell-backend/pkg/migrate"
	"github.com/inkwellbooks/inkwell-backend/pkg/outbox"
	"github.com/inkwellbooks/inkwell-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	cartRepo := cart.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	orderRepo := ordersvc.NewRepository(gormDB)
	paymentRepo := payments.NewRepository(gormDB)
	preOrderRepo := preorder.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	inventorySvc, err := inventory.NewService(inventory.NewRepository(gormDB))
	if err != nil {
		fatal(logg, "failed to create inventory service", err)
	}
	cartSvc, err := cart.NewService(cartRepo, dbClient, catalogRepo, preOrderRepo)
	if err != nil {
		fatal(logg, "failed to create cart service", err)
	}
	paymentSvc, err := payments.NewService(paymentRepo, orderRepo, dbClient, outboxSvc, inventorySvc, cfg.Checkout)
	if err != nil {
		fatal(logg, "failed to create payment service", err)
	}
	checkoutSvc, err := checkoutsvc.NewService(
		cartRepo,
		catalogRepo,
		orderRepo,
		paymentSvc,
		inventorySvc,
		dbClient,
		outboxSvc,
		metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		cfg.Checkout,
	)
	if err != nil {
		fatal(logg, "failed to create checkout service", err)
	}
	preOrderSvc, err := preorder.NewService(
		preOrderRepo,
		catalogRepo,
		orderRepo,
		paymentSvc,
		inventorySvc,
		dbClient,
		outboxSvc,
		cfg.PreOrder,
	)
	if err != nil {
		fatal(logg, "failed to create pre-order service", err)
	}
	orderSvc, err := ordersvc.NewService(orderRepo)
	if err != nil {
		fatal(logg, "failed to create order service", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
			Cart:     cartSvc,
			Checkout: checkoutSvc,
			Orders:   orderSvc,
			Payments: paymentSvc,
			PreOrder: preOrderSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func fatal(logg *logger.Logger, msg string, err error) {
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
