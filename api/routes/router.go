package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smartpos/smartpos-backend/api/controllers"
	"github.com/smartpos/smartpos-backend/api/middleware"
	"github.com/smartpos/smartpos-backend/internal/auth"
	"github.com/smartpos/smartpos-backend/internal/branches"
	"github.com/smartpos/smartpos-backend/internal/businesses"
	"github.com/smartpos/smartpos-backend/internal/clients"
	"github.com/smartpos/smartpos-backend/internal/inventory"
	"github.com/smartpos/smartpos-backend/internal/onboarding"
	"github.com/smartpos/smartpos-backend/internal/orders"
	product "github.com/smartpos/smartpos-backend/internal/products"
	"github.com/smartpos/smartpos-backend/internal/push"
	"github.com/smartpos/smartpos-backend/internal/users"
	"github.com/smartpos/smartpos-backend/pkg/auth/session"
	"github.com/smartpos/smartpos-backend/pkg/config"
	"github.com/smartpos/smartpos-backend/pkg/enums"
	"github.com/smartpos/smartpos-backend/pkg/logger"
	pkgredis "github.com/smartpos/smartpos-backend/pkg/redis"
)

// Services are the domain services exposed over HTTP.
type Services struct {
	Auth       auth.Service
	Register   auth.RegisterService
	Businesses businesses.Service
	Branches   branches.Service
	Users      users.Service
	Products   product.Service
	Orders     orders.Service
	Inventory  inventory.Service
	Onboarding onboarding.Service
	Push       push.Service
	Clients    clients.Service
}

// Dependencies carry the infrastructure the middleware chain needs.
type Dependencies struct {
	Sessions    session.AccessSessionChecker
	Resolver    middleware.ActorResolver
	Access      middleware.AccessChecker
	RateLimits  middleware.RateLimitStore
	Idempotency pkgredis.IdempotencyStore
	Pingers     map[string]controllers.Pinger
	Metrics     http.Handler
	Requests    middleware.RequestObserver
}

var tenantRoles = []enums.Role{enums.RoleAdmin, enums.RoleManager, enums.RoleStorekeeper}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.Requests),
		middleware.Recoverer(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginRule := middleware.RateRule{
		Name:        "login",
		Window:      cfg.AuthRateLimit.LoginWindow,
		PerIP:       cfg.AuthRateLimit.LoginIPLimit,
		PerUsername: cfg.AuthRateLimit.LoginUsernameLimit,
	}
	registerRule := middleware.RateRule{
		Name:        "register",
		Window:      cfg.AuthRateLimit.RegisterWindow,
		PerIP:       cfg.AuthRateLimit.RegisterIPLimit,
		PerUsername: cfg.AuthRateLimit.RegisterUsernameLimit,
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.Pingers, logg))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Get("/api/public/ping", controllers.PublicPing())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginRule, deps.RateLimits, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
		r.With(
			middleware.AuthRateLimit(registerRule, deps.RateLimits, logg),
			middleware.Idempotency(deps.Idempotency, logg),
		).Post("/register", controllers.AuthRegister(svc.Register, svc.Auth, logg))
		r.With(middleware.AuthRateLimit(registerRule, deps.RateLimits, logg)).Post("/superadmin", controllers.AuthCreateSuperadmin(svc.Register, logg))
		r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, deps.Resolver, logg)).Post("/logout", controllers.AuthLogout(svc.Auth, logg))
	})

	r.Get("/api/v1/push/public-key", controllers.PushPublicKey(svc.Push, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, deps.Resolver, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, tenantRoles...))
			r.Use(middleware.RequireSubscription(deps.Access, logg))

			r.Get("/ping", controllers.PrivatePing())

			r.Route("/business", func(r chi.Router) {
				r.Get("/", controllers.BusinessProfile(svc.Businesses, logg))
				r.Patch("/", controllers.BusinessUpdate(svc.Businesses, logg))
			})
			r.Route("/branches", func(r chi.Router) {
				r.Get("/", controllers.BranchList(svc.Branches, logg))
				r.Post("/", controllers.BranchCreate(svc.Branches, logg))
			})
			r.Route("/staff", func(r chi.Router) {
				r.Get("/", controllers.StaffList(svc.Branches, logg))
				r.Post("/", controllers.StaffCreate(svc.Branches, logg))
			})
			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.UserList(svc.Users, logg))
				r.Post("/", controllers.UserCreate(svc.Users, logg))
			})
			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(svc.Products, logg))
				r.Post("/", controllers.ProductCreate(svc.Products, logg))
				r.Get("/{productId}", controllers.ProductDetail(svc.Products, logg))
				r.Patch("/{productId}", controllers.ProductUpdate(svc.Products, logg))
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(svc.Orders, logg))
				r.Post("/", controllers.OrderCreate(svc.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(svc.Orders, logg))
			})
			r.Route("/inventory", func(r chi.Router) {
				r.Get("/overview", controllers.InventoryOverview(svc.Inventory, logg))
				r.Get("/stock/{productId}", controllers.InventoryStock(svc.Inventory, logg))
				r.Get("/movements", controllers.InventoryMovements(svc.Inventory, logg))
				r.Post("/restock", controllers.InventoryRestock(svc.Inventory, logg))
				r.Post("/issue", controllers.InventoryIssue(svc.Inventory, logg))
				r.Post("/adjust", controllers.InventoryAdjust(svc.Inventory, logg))
				r.Post("/transfer", controllers.InventoryTransfer(svc.Inventory, logg))
			})
			r.Route("/onboarding", func(r chi.Router) {
				r.Get("/", controllers.OnboardingStatus(svc.Onboarding, logg))
				r.Post("/events", controllers.OnboardingEvent(svc.Onboarding, logg))
			})
			r.Post("/push/subscribe", controllers.PushSubscribe(svc.Push, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.RoleSuperadmin))
			r.Get("/clients", controllers.ClientList(svc.Clients, logg))
			r.Post("/clients/{businessId}/reminder", controllers.ClientReminder(svc.Clients, logg))
			r.Post("/clients/{businessId}/subscription/{action}", controllers.ClientSubscriptionAction(svc.Clients, logg))
		})
	})

	return r
}
