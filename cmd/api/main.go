package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smartcanteen/canteen-backend/api/routes"
	authsvc "github.com/smartcanteen/canteen-backend/internal/auth"
	bulksvc "github.com/smartcanteen/canteen-backend/internal/bulkorders"
	canteenssvc "github.com/smartcanteen/canteen-backend/internal/canteens"
	cartsvc "github.com/smartcanteen/canteen-backend/internal/cart"
	checkoutsvc "github.com/smartcanteen/canteen-backend/internal/checkout"
	complaintssvc "github.com/smartcanteen/canteen-backend/internal/complaints"
	menusvc "github.com/smartcanteen/canteen-backend/internal/menu"
	orderssvc "github.com/smartcanteen/canteen-backend/internal/orders"
	paymentssvc "github.com/smartcanteen/canteen-backend/internal/payments"
	promosvc "github.com/smartcanteen/canteen-backend/internal/promotions"
	userssvc "github.com/smartcanteen/canteen-backend/internal/users"
	"github.com/smartcanteen/canteen-backend/pkg/auth/session"
	"github.com/smartcanteen/canteen-backend/pkg/config"
	"github.com/smartcanteen/canteen-backend/pkg/db"
	"github.com/smartcanteen/canteen-backend/pkg/logger"
	"github.com/smartcanteen/canteen-backend/pkg/metrics"
	"github.com/smartcanteen/canteen-backend/pkg/migrate"
	redisclient "github.com/smartcanteen/canteen-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
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

	redisClient, err := redisclient.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	gormDB := dbClient.DB()
	usersRepo := userssvc.NewRepository(gormDB)
	cartRepo := cartsvc.NewRepository(gormDB)
	ordersRepo := orderssvc.NewRepository(gormDB)
	canteensRepo := canteenssvc.NewRepository(gormDB)
	menuRepo := menusvc.NewRepository(gormDB)
	promotionsRepo := promosvc.NewRepository(gormDB)
	bulkRepo := bulksvc.NewRepository(gormDB)
	complaintsRepo := complaintssvc.NewRepository(gormDB)
	merchantRepo := paymentssvc.NewMerchantRepository(gormDB)

	authService, err := authsvc.NewService(usersRepo, sessionManager, redisClient, cfg.JWT, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	usersService, err := userssvc.NewService(usersRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	canteensService, err := canteenssvc.NewService(canteensRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create canteens service", err)
		os.Exit(1)
	}

	menuService, err := menusvc.NewService(menuRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create menu service", err)
		os.Exit(1)
	}

	promotionsService, err := promosvc.NewService(promotionsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create promotions service", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(cartRepo, dbClient, menuService, canteensService)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersService, err := orderssvc.NewService(ordersRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(
		dbClient,
		cartRepo,
		ordersRepo,
		promotionsService,
		paymentMetrics,
		cfg.Payments.ReceiptPrefix,
		cfg.Payments.Currency,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	merchantResolver, err := paymentssvc.NewMerchantResolver(merchantRepo, cfg.Payments, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create merchant resolver", err)
		os.Exit(1)
	}

	paymentsService, err := paymentssvc.NewService(
		dbClient,
		ordersRepo,
		merchantResolver,
		redisClient,
		checkoutService,
		paymentMetrics,
		cfg.Payments.InFlightLockTTL,
		cfg.Payments.Currency,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	bulkService, err := bulksvc.NewService(bulkRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create bulk orders service", err)
		os.Exit(1)
	}

	complaintsService, err := complaintssvc.NewService(complaintsRepo, ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create complaints service", err)
		os.Exit(1)
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

	handler := routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, routes.Services{
		Auth:       authService,
		Users:      usersService,
		Canteens:   canteensService,
		Menu:       menuService,
		Cart:       cartService,
		Checkout:   checkoutService,
		Payments:   paymentsService,
		Orders:     ordersService,
		Promotions: promotionsService,
		BulkOrders: bulkService,
		Complaints: complaintsService,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", handler)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
