package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smartcanteen/canteen-backend/api/controllers"
	"github.com/smartcanteen/canteen-backend/api/middleware"
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
	"github.com/smartcanteen/canteen-backend/pkg/enums"
	"github.com/smartcanteen/canteen-backend/pkg/logger"
	redisclient "github.com/smartcanteen/canteen-backend/pkg/redis"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	Auth       authsvc.Service
	Users      userssvc.Service
	Canteens   canteenssvc.Service
	Menu       menusvc.Service
	Cart       cartsvc.Service
	Checkout   checkoutsvc.Service
	Payments   paymentssvc.Service
	Orders     orderssvc.Service
	Promotions promosvc.Service
	BulkOrders bulksvc.Service
	Complaints complaintssvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redisclient.Client,
	sessions session.AccessSessionChecker,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Route("/v1/canteens", func(r chi.Router) {
			r.Get("/", controllers.CanteenList(svcs.Canteens, logg))
			r.Get("/{canteenId}", controllers.CanteenFetch(svcs.Canteens, logg))
			r.Get("/{canteenId}/menu", controllers.MenuByCanteen(svcs.Menu, logg))
			r.Get("/{canteenId}/promotions", controllers.PromotionsByCanteen(svcs.Promotions, logg))
		})
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, sessions, logg)).Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/me", func(r chi.Router) {
			r.Get("/", controllers.ProfileFetch(svcs.Users, logg))
			r.Put("/", controllers.ProfileUpdate(svcs.Users, logg))
			r.Post("/password", controllers.PasswordChange(svcs.Users, logg))
		})

		r.Route("/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(svcs.Cart, logg))
			r.Post("/lines", controllers.CartAddLine(svcs.Cart, logg))
			r.Patch("/lines/{lineId}", controllers.CartUpdateLine(svcs.Cart, logg))
			r.Delete("/lines/{lineId}", controllers.CartRemoveLine(svcs.Cart, logg))
			r.Delete("/", controllers.CartClear(svcs.Cart, logg))
		})

		r.Post("/v1/checkout", controllers.CheckoutStart(svcs.Checkout, logg))

		r.Route("/v1/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderFetch(svcs.Orders, logg))
			r.Route("/{orderId}/payment", func(r chi.Router) {
				r.Post("/initiate", controllers.PaymentInitiate(svcs.Payments, logg))
				r.Post("/confirm", controllers.PaymentConfirm(svcs.Payments, logg))
				r.Post("/cancel", controllers.PaymentCancel(svcs.Payments, logg))
				r.Post("/fail", controllers.PaymentFail(svcs.Payments, logg))
			})
		})

		r.Route("/v1/bulk-orders", func(r chi.Router) {
			r.Get("/", controllers.BulkOrderList(svcs.BulkOrders, logg))
			r.Post("/", controllers.BulkOrderSubmit(svcs.BulkOrders, logg))
		})

		r.Route("/v1/complaints", func(r chi.Router) {
			r.Get("/", controllers.ComplaintList(svcs.Complaints, logg))
			r.Post("/", controllers.ComplaintFile(svcs.Complaints, logg))
		})

		r.Route("/v1/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleVendor), logg))

			r.Post("/canteen/open", controllers.CanteenSetOpen(svcs.Canteens, logg))

			r.Route("/menu", func(r chi.Router) {
				r.Get("/", controllers.VendorMenuList(svcs.Menu, logg))
				r.Post("/", controllers.VendorMenuCreate(svcs.Menu, logg))
				r.Put("/{itemId}", controllers.VendorMenuUpdate(svcs.Menu, logg))
				r.Patch("/{itemId}/availability", controllers.VendorMenuSetAvailability(svcs.Menu, logg))
				r.Delete("/{itemId}", controllers.VendorMenuDelete(svcs.Menu, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.VendorOrderList(svcs.Orders, logg))
				r.Post("/{orderId}/status", controllers.VendorOrderAdvance(svcs.Orders, logg))
				r.Post("/{orderId}/collect-cash", controllers.VendorOrderCollectCash(svcs.Orders, logg))
			})

			r.Route("/promotions", func(r chi.Router) {
				r.Get("/", controllers.VendorPromotionList(svcs.Promotions, logg))
				r.Post("/", controllers.VendorPromotionCreate(svcs.Promotions, logg))
				r.Put("/{promotionId}", controllers.VendorPromotionUpdate(svcs.Promotions, logg))
				r.Post("/{promotionId}/deactivate", controllers.VendorPromotionDeactivate(svcs.Promotions, logg))
			})

			r.Route("/bulk-orders", func(r chi.Router) {
				r.Get("/", controllers.VendorBulkOrderList(svcs.BulkOrders, logg))
				r.Post("/{requestId}/review", controllers.VendorBulkOrderReview(svcs.BulkOrders, logg))
			})

			r.Route("/complaints", func(r chi.Router) {
				r.Get("/", controllers.VendorComplaintList(svcs.Complaints, logg))
				r.Post("/{complaintId}/respond", controllers.VendorComplaintRespond(svcs.Complaints, logg))
			})
		})

		r.Route("/v1/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

			r.Post("/vendors", controllers.AuthCreateVendor(svcs.Auth, logg))
			r.Route("/canteens", func(r chi.Router) {
				r.Post("/", controllers.CanteenCreate(svcs.Canteens, logg))
				r.Put("/{canteenId}", controllers.CanteenUpdate(svcs.Canteens, logg))
			})
		})
	})

	return r
}
