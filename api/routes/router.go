package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hopefultail/hopeful-tail-backend/api/controllers"
	webhookcontrollers "github.com/hopefultail/hopeful-tail-backend/api/controllers/webhooks"
	"github.com/hopefultail/hopeful-tail-backend/api/middleware"
	"github.com/hopefultail/hopeful-tail-backend/internal/adoptions"
	"github.com/hopefultail/hopeful-tail-backend/internal/auth"
	"github.com/hopefultail/hopeful-tail-backend/internal/cart"
	"github.com/hopefultail/hopeful-tail-backend/internal/cartpets"
	"github.com/hopefultail/hopeful-tail-backend/internal/funds"
	"github.com/hopefultail/hopeful-tail-backend/internal/invoices"
	"github.com/hopefultail/hopeful-tail-backend/internal/media"
	"github.com/hopefultail/hopeful-tail-backend/internal/pets"
	"github.com/hopefultail/hopeful-tail-backend/internal/products"
	"github.com/hopefultail/hopeful-tail-backend/internal/users"
	"github.com/hopefultail/hopeful-tail-backend/pkg/auth/session"
	"github.com/hopefultail/hopeful-tail-backend/pkg/config"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
	pkgredis "github.com/hopefultail/hopeful-tail-backend/pkg/redis"
)

// Store is the Redis surface the HTTP layer needs: idempotency records and
// rate limit counters.
type Store interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

type squareVerifier interface {
	VerifyWebhook(body []byte, signature string) error
}

// Dependencies bundles everything NewRouter mounts.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	Store    Store
	Sessions session.AccessSessionChecker
	Ready    map[string]controllers.Pinger
	Metrics  http.Handler

	Auth       auth.Service
	Users      users.Service
	Pets       pets.Service
	Products   products.Service
	Cart       cart.Service
	CartPets   cartpets.Service
	Adoptions  adoptions.Service
	Invoices   invoices.Service
	Funds      funds.Service
	Media      media.Service
	Reconciler webhookcontrollers.PaymentReconciler
	Square     squareVerifier
}

func NewRouter(d Dependencies) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Frontend.Origins()),
	)

	loginPolicy := middleware.NewRateLimitPolicy("login", cfg.AuthRateLimit.LoginWindow, cfg.AuthRateLimit.LoginIPLimit)
	registerPolicy := middleware.NewRateLimitPolicy("register", cfg.AuthRateLimit.RegisterWindow, cfg.AuthRateLimit.RegisterIPLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.Ready, logg))
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	checksumKey := ""
	if cfg.FeatureFlags.VerifyPayOSSignature {
		checksumKey = cfg.PayOS.ChecksumKey
	}
	r.Post("/receive-hook", webhookcontrollers.PayOSReceiveHook(d.Reconciler, checksumKey, logg))
	if d.Square != nil {
		r.Post("/webhooks/square", webhookcontrollers.SquareWebhook(d.Reconciler, d.Square, logg))
	}

	requireAuth := middleware.Auth(cfg.JWT, d.Sessions, logg)
	adminOnly := middleware.RequireRole(logg, enums.UserRoleAdmin)
	adoptionStaff := middleware.RequireRole(logg, enums.UserRoleAdoptedAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(registerPolicy, d.Store, logg)).Post("/register", controllers.AuthRegister(d.Auth, logg))
			r.With(middleware.RateLimit(loginPolicy, d.Store, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
			r.With(requireAuth).Post("/logout", controllers.AuthLogout(d.Auth, logg))
		})

		// public catalog
		r.Get("/pets", controllers.PetList(d.Pets, logg))
		r.Get("/pets/{id}", controllers.PetGet(d.Pets, logg))
		r.Get("/products", controllers.ProductList(d.Products, logg))
		r.Get("/products/{id}", controllers.ProductGet(d.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.Idempotency(d.Store, logg))

			r.Get("/user/me", controllers.UserMe(d.Users, logg))
			r.With(adminOnly).Get("/user", controllers.UserList(d.Users, logg))
			r.Get("/user/{id}", controllers.UserGet(d.Users, logg))
			r.Patch("/user/{id}", controllers.UserUpdate(d.Users, logg))
			r.With(adminOnly).Delete("/user/{id}", controllers.UserDelete(d.Users, logg))

			r.With(adminOnly).Post("/pets", controllers.PetCreate(d.Pets, logg))
			r.With(adminOnly).Patch("/pets/{id}", controllers.PetUpdate(d.Pets, logg))
			r.With(adminOnly).Delete("/pets/{id}", controllers.PetDelete(d.Pets, logg))

			r.With(adminOnly).Post("/products", controllers.ProductCreate(d.Products, logg))
			r.With(adminOnly).Patch("/products/{id}", controllers.ProductUpdate(d.Products, logg))
			r.With(adminOnly).Delete("/products/{id}", controllers.ProductDelete(d.Products, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartList(d.Cart, logg))
				r.Post("/", controllers.CartAdd(d.Cart, logg))
				r.Get("/{id}", controllers.CartGet(d.Cart, logg))
				r.Patch("/{id}", controllers.CartUpdate(d.Cart, logg))
				r.Delete("/{id}", controllers.CartDelete(d.Cart, logg))
			})

			r.Route("/cart-pets", func(r chi.Router) {
				r.Get("/", controllers.CartPetList(d.CartPets, logg))
				r.Post("/", controllers.CartPetAdd(d.CartPets, logg))
				r.Get("/{id}", controllers.CartPetGet(d.CartPets, logg))
				r.With(adoptionStaff).Patch("/{id}", controllers.CartPetUpdateStatus(d.CartPets, logg))
				r.Delete("/{id}", controllers.CartPetDelete(d.CartPets, logg))
			})

			r.Route("/adoption-request", func(r chi.Router) {
				r.Post("/", controllers.AdoptionCreate(d.Adoptions, logg))
				r.Get("/", controllers.AdoptionList(d.Adoptions, logg))
				r.With(adoptionStaff).Patch("/", controllers.AdoptionUpdateStatus(d.Adoptions, logg))
				r.With(adoptionStaff).Get("/count-day", controllers.AdoptionCountDay(d.Adoptions, logg))
			})

			r.Post("/invoice", controllers.InvoiceCreate(d.Invoices, logg))
			r.Get("/invoice", controllers.InvoiceList(d.Invoices, logg))
			r.Get("/invoices/orderCode/{orderCode}", controllers.InvoiceGet(d.Invoices, logg))
			r.Post("/invoices/orderCode/{orderCode}/cancel", controllers.InvoiceCancel(d.Invoices, logg))

			r.Post("/fund", controllers.FundCreate(d.Funds, logg))
			r.Get("/fund", controllers.FundList(d.Funds, logg))

			r.Post("/media/upload", controllers.MediaUpload(d.Media, cfg.Media.MaxUploadBytes(), logg))
			r.With(adminOnly).Delete("/media/{id}", controllers.MediaDelete(d.Media, logg))
		})
	})

	return r
}
