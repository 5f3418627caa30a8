package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/hopefultail/hopeful-tail-backend/api/controllers"
	"github.com/hopefultail/hopeful-tail-backend/api/routes"
	"github.com/hopefultail/hopeful-tail-backend/internal/adoptions"
	"github.com/hopefultail/hopeful-tail-backend/internal/auth"
	"github.com/hopefultail/hopeful-tail-backend/internal/cart"
	"github.com/hopefultail/hopeful-tail-backend/internal/cartpets"
	"github.com/hopefultail/hopeful-tail-backend/internal/funds"
	"github.com/hopefultail/hopeful-tail-backend/internal/invoices"
	"github.com/hopefultail/hopeful-tail-backend/internal/media"
	"github.com/hopefultail/hopeful-tail-backend/internal/payments"
	"github.com/hopefultail/hopeful-tail-backend/internal/pets"
	"github.com/hopefultail/hopeful-tail-backend/internal/products"
	"github.com/hopefultail/hopeful-tail-backend/internal/users"
	"github.com/hopefultail/hopeful-tail-backend/internal/webhooks"
	"github.com/hopefultail/hopeful-tail-backend/pkg/auth/session"
	"github.com/hopefultail/hopeful-tail-backend/pkg/config"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
	"github.com/hopefultail/hopeful-tail-backend/pkg/metrics"
	"github.com/hopefultail/hopeful-tail-backend/pkg/migrate"
	"github.com/hopefultail/hopeful-tail-backend/pkg/payos"
	"github.com/hopefultail/hopeful-tail-backend/pkg/pubsub"
	"github.com/hopefultail/hopeful-tail-backend/pkg/redis"
	"github.com/hopefultail/hopeful-tail-backend/pkg/security"
	"github.com/hopefultail/hopeful-tail-backend/pkg/square"
	"github.com/hopefultail/hopeful-tail-backend/pkg/storage/gcs"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
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

	registry := metrics.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(registry)
	ready := map[string]controllers.Pinger{
		"postgres": dbClient,
		"redis":    redisClient,
	}

	usersRepo := users.NewRepository(dbClient.DB())
	hasher := security.NewHasher(cfg.Password)
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		Hasher:         hasher,
		JWTConfig:      cfg.JWT,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	usersService, err := users.NewService(usersRepo, hasher, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	mediaRepo := media.NewRepository(dbClient.DB())
	var mediaService media.Service
	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Warn(context.Background(), "gcs unavailable, media uploads disabled")
	} else {
		defer func() {
			if err := gcsClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing gcs", err)
			}
		}()
		ready["gcs"] = gcsClient
		mediaService, err = media.NewService(mediaRepo, gcsClient, cfg.Media.MaxUploadBytes(), logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create media service", err)
			os.Exit(1)
		}
	}

	petsRepo := pets.NewRepository(dbClient.DB())
	petsService, err := pets.NewService(petsRepo, mediaRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create pets service", err)
		os.Exit(1)
	}
	productsRepo := products.NewRepository(dbClient.DB())
	productsService, err := products.NewService(productsRepo, mediaRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cart.NewRepository(dbClient.DB()), productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	cartPetsRepo := cartpets.NewRepository(dbClient.DB())
	cartPetsService, err := cartpets.NewService(cartPetsRepo, petsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart pets service", err)
		os.Exit(1)
	}
	adoptionsService, err := adoptions.NewService(adoptions.ServiceParams{
		Repo:     adoptions.NewRepository(dbClient.DB()),
		CartPets: cartPetsRepo,
		Pets:     petsRepo,
		Tx:       dbClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create adoptions service", err)
		os.Exit(1)
	}

	payosClient, squareClient := paymentClients(cfg, logg)
	gateway, err := payments.SelectGateway(cfg.Payments, payosClient, squareClient)
	if err != nil {
		logg.Error(context.Background(), "failed to select payment gateway", err)
		os.Exit(1)
	}
	links, err := payments.NewLinkIssuer(payments.LinkIssuerParams{
		Gateway: gateway,
		Timeout: cfg.Payments.GatewayTimeout,
		Metrics: paymentMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create link issuer", err)
		os.Exit(1)
	}
	orderCodes := payments.NewOrderCodes(dbClient.DB())

	invoicesRepo := invoices.NewRepository(dbClient.DB())
	invoiceParams := invoices.ServiceParams{
		Repo:        invoicesRepo,
		Tx:          dbClient,
		OrderCodes:  orderCodes,
		Links:       links,
		FrontendURL: cfg.Frontend.URL,
		Logger:      logg,
	}
	if payosClient != nil {
		invoiceParams.Canceller = payosClient
	}
	invoicesService, err := invoices.NewService(invoiceParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoices service", err)
		os.Exit(1)
	}

	fundsRepo := funds.NewRepository(dbClient.DB())
	fundsService, err := funds.NewService(funds.ServiceParams{
		Repo:        fundsRepo,
		Tx:          dbClient,
		OrderCodes:  orderCodes,
		Links:       links,
		FrontendURL: cfg.Frontend.URL,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create funds service", err)
		os.Exit(1)
	}

	guard, err := webhooks.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, webhooks.DefaultScope)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}
	reconcilerParams := payments.ReconcilerParams{
		DB:       dbClient,
		Events:   payments.NewEventRepository(dbClient.DB()),
		Settlers: []payments.Settler{invoices.NewSettler(invoicesRepo), funds.NewSettler(fundsRepo)},
		Guard:    guard,
		Metrics:  paymentMetrics,
		Logger:   logg,
	}
	if cfg.PubSub.PaymentsTopic != "" {
		psClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		publisher, err := payments.NewPubSubPublisher(psClient, cfg.PubSub.PaymentsTopic)
		if err != nil {
			logg.Error(context.Background(), "failed to create payments publisher", err)
			os.Exit(1)
		}
		reconcilerParams.Publisher = publisher
		ready["pubsub"] = psClient
	}
	reconciler, err := payments.NewReconciler(reconcilerParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler", err)
		os.Exit(1)
	}

	deps := routes.Dependencies{
		Config:     cfg,
		Logger:     logg,
		Store:      redisClient,
		Sessions:   sessionManager,
		Ready:      ready,
		Metrics:    metrics.Handler(registry),
		Auth:       authService,
		Users:      usersService,
		Pets:       petsService,
		Products:   productsService,
		Cart:       cartService,
		CartPets:   cartPetsService,
		Adoptions:  adoptionsService,
		Invoices:   invoicesService,
		Funds:      fundsService,
		Media:      mediaService,
		Reconciler: reconciler,
	}
	if squareClient != nil {
		deps.Square = squareClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
		"provider": links.Provider(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(deps),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// paymentClients builds whichever gateway clients are configured. PayOS is
// also kept when Square issues links so cancellations and the receive hook
// still work for older invoices.
func paymentClients(cfg *config.Config, logg *logger.Logger) (*payos.Client, *square.Client) {
	var payosClient *payos.Client
	if client, err := payos.NewClient(cfg.PayOS); err == nil {
		payosClient = client
	} else if cfg.Payments.ProviderName() == config.PaymentProviderPayOS {
		logg.Error(context.Background(), "failed to create payos client", err)
		os.Exit(1)
	}

	var squareClient *square.Client
	if cfg.Square.AccessToken != "" {
		client, err := square.NewClient(context.Background(), cfg.Square, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create square client", err)
			os.Exit(1)
		}
		squareClient = client
	}
	return payosClient, squareClient
}
