package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/polybazaar/polybazaar-backend/api/controllers"
	"github.com/polybazaar/polybazaar-backend/api/middleware"
	"github.com/polybazaar/polybazaar-backend/internal/accesscontrol"
	authsvc "github.com/polybazaar/polybazaar-backend/internal/auth"
	cartsvc "github.com/polybazaar/polybazaar-backend/internal/cart"
	checkoutsvc "github.com/polybazaar/polybazaar-backend/internal/checkout"
	listingsvc "github.com/polybazaar/polybazaar-backend/internal/listings"
	"github.com/polybazaar/polybazaar-backend/internal/messaging"
	ordersvc "github.com/polybazaar/polybazaar-backend/internal/orders"
	productsvc "github.com/polybazaar/polybazaar-backend/internal/products"
	"github.com/polybazaar/polybazaar-backend/pkg/config"
	"github.com/polybazaar/polybazaar-backend/pkg/db"
	"github.com/polybazaar/polybazaar-backend/pkg/enums"
	"github.com/polybazaar/polybazaar-backend/pkg/logger"
	"github.com/polybazaar/polybazaar-backend/pkg/metrics"
	"github.com/polybazaar/polybazaar-backend/pkg/redis"
)

// Services bundles everything the router mounts.
type Services struct {
	Auth          authsvc.Service
	AccessControl accesscontrol.Service
	Messaging     messaging.Service
	Products      productsvc.Service
	Listings      listingsvc.Service
	Cart          cartsvc.Service
	Checkout      checkoutsvc.Service
	Orders        ordersvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/v1", func(r chi.Router) {
			r.Route("/chat-permissions", func(r chi.Router) {
				r.Get("/", controllers.ChatPermissionList(svcs.AccessControl, logg))
				r.Post("/request", controllers.ChatPermissionRequest(svcs.AccessControl, logg))
			})
			r.Post("/chat/request", controllers.ChatAccessRequest(svcs.AccessControl, logg))

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", controllers.ConversationList(svcs.Messaging, logg))
				r.Post("/", controllers.ConversationOpen(svcs.Messaging, logg))
				r.Get("/{conversationId}/messages", controllers.ConversationMessages(svcs.Messaging, logg))
				r.Post("/{conversationId}/messages", controllers.ConversationSend(svcs.Messaging, logg))
			})
			r.Route("/messages", func(r chi.Router) {
				r.Post("/", controllers.MessageSend(svcs.Messaging, logg))
				r.Get("/thread", controllers.MessageThread(svcs.Messaging, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductCatalog(svcs.Products, logg))
				r.Post("/", controllers.ProductCreate(svcs.Products, logg))
				r.Get("/mine", controllers.ProductMine(svcs.Products, logg))
			})
			r.Route("/machinery", func(r chi.Router) {
				r.Get("/", controllers.MachineryList(svcs.Listings, logg))
				r.Post("/", controllers.MachineryCreate(svcs.Listings, logg))
			})
			r.Route("/jobs", func(r chi.Router) {
				r.Get("/", controllers.JobList(svcs.Listings, logg))
				r.Post("/", controllers.JobCreate(svcs.Listings, logg))
				r.Get("/{jobId}/bids", controllers.BidList(svcs.Listings, logg))
				r.Post("/{jobId}/bids", controllers.BidPlace(svcs.Listings, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(svcs.Cart, logg))
				r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(svcs.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(svcs.Cart, logg))
			})
			r.Post("/checkout", controllers.Checkout(svcs.Checkout, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersList(svcs.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

		r.Route("/chat-permissions/{requestId}", func(r chi.Router) {
			r.Put("/approve", controllers.AdminChatPermissionDecide(svcs.AccessControl, true, logg))
			r.Put("/reject", controllers.AdminChatPermissionDecide(svcs.AccessControl, false, logg))
			r.Put("/revoke", controllers.AdminChatPermissionRevoke(svcs.AccessControl, logg))
		})
		r.Put("/chat-requests/{requestId}", controllers.AdminChatAccessDecide(svcs.AccessControl, logg))
		r.Put("/products/{productId}/approve", controllers.AdminProductApprove(svcs.Products, logg))
		r.Put("/machinery/{listingId}/approve", controllers.AdminMachineryApprove(svcs.Listings, logg))
	})

	return r
}
