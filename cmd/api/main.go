package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/apporbit/apporbit-server/internal/cache"
	"github.com/apporbit/apporbit-server/internal/domain"
	"github.com/apporbit/apporbit-server/internal/http/handlers"
	authmw "github.com/apporbit/apporbit-server/internal/http/middleware"
	"github.com/apporbit/apporbit-server/internal/platform/identity"
	"github.com/apporbit/apporbit-server/internal/platform/mailer"
	"github.com/apporbit/apporbit-server/internal/platform/payments"
	"github.com/apporbit/apporbit-server/internal/repo/postgres"
	"github.com/apporbit/apporbit-server/internal/service"
	"github.com/apporbit/apporbit-server/pkg/config"
	"github.com/apporbit/apporbit-server/pkg/database"
	"github.com/apporbit/apporbit-server/pkg/events"
	"github.com/apporbit/apporbit-server/pkg/logger"
	mw "github.com/apporbit/apporbit-server/pkg/middleware"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Redis backs the hot-list cache; the server runs fine without it.
	var productCache *cache.ProductCache
	if opts, err := redis.ParseURL(cfg.Redis.URL); err != nil {
		logger.Warn("Invalid redis URL, list caching disabled", "error", err)
	} else {
		productCache = cache.NewProductCache(redis.NewClient(opts), cfg.Redis.CacheTTL)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)

	// External collaborators
	verifier := identity.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Audience)
	intents := payments.NewStripeClient(cfg.Stripe.SecretKey)

	var mail mailer.Service
	if cfg.Email.DevMode || cfg.Email.MailerSendKey == "" {
		mail = mailer.NewDevMailer()
	} else {
		mail = mailer.NewMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	// Services
	userService := service.NewUserService(userRepo, eventBus)
	productService := service.NewProductService(productRepo, productCache, eventBus, mail)
	reviewService := service.NewReviewService(reviewRepo)
	couponService := service.NewCouponService(couponRepo)

	h := handlers.New(userService, productService, reviewService, couponService, intents, cfg.Stripe.Currency)

	// Authorization pipeline: identity first, role gate second. Each step
	// short-circuits on failure.
	requireIdentity := authmw.RequireIdentity(verifier)
	requireModerator := authmw.RequireRole(userRepo, domain.RoleModerator)
	requireAdmin := authmw.RequireRole(userRepo, domain.RoleAdmin)

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("api"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("AppOrbit server is running"))
	})

	// Users
	r.Post("/users", h.RegisterUser)
	r.With(requireIdentity, requireAdmin).Get("/users", h.ListUsers)
	r.Get("/users/role/{email}", h.GetUserRole)
	r.With(requireIdentity).Patch("/users/subscribe/{email}", h.SubscribeUser)
	r.With(requireIdentity).Get("/users/{email}", h.GetUser)
	r.Patch("/users/{id}", h.UpdateUserRole)

	// Products
	r.With(requireIdentity).Post("/products", h.SubmitProduct)
	r.Get("/products", h.ListProducts)
	r.Get("/products/status/{status}", h.ListProductsByStatus)
	r.With(requireIdentity).Get("/products/user", h.ListMyProducts)
	r.Get("/products/featured", h.ListFeatured)
	r.Get("/products/trending", h.ListTrending)
	r.Get("/products/reported", h.ListReported)
	r.Delete("/products/reported/{id}", h.DeleteReported)
	r.With(requireIdentity).Patch("/products/upvote/{id}", h.UpvoteProduct)
	r.With(requireIdentity).Patch("/products/report/{id}", h.ReportProduct)
	r.With(requireIdentity).Get("/singleproduct/{id}", h.GetProduct)
	r.With(requireIdentity).Patch("/productUp/{id}", h.UpdateProduct)
	r.With(requireIdentity).Delete("/products/{id}", h.DeleteProduct)

	// Moderation
	moderator := r.With(requireIdentity, requireModerator)
	moderator.Get("/products/pending", h.ListPending)
	moderator.Patch("/products/accept/{id}", h.AcceptProduct)
	moderator.Patch("/products/reject/{id}", h.RejectProduct)
	moderator.Patch("/products/feature/{id}", h.FeatureProduct)

	// Payments
	r.With(requireIdentity).Post("/create-payment-intent", h.CreatePaymentIntent)

	// Coupons
	r.With(requireIdentity, requireAdmin).Post("/coupons", h.CreateCoupon)
	r.Get("/coupons", h.ListCoupons)
	r.Post("/coupons/verify", h.VerifyCoupon)
	r.With(requireIdentity, requireAdmin).Patch("/coupons/{id}", h.UpdateCoupon)
	r.With(requireIdentity, requireAdmin).Delete("/coupons/{id}", h.DeleteCoupon)

	// Reviews
	r.With(requireIdentity).Post("/reviews", h.CreateReview)
	r.Get("/reviews/all", h.ListReviews)
	r.Get("/review", h.ListRecentReviews)
	r.Get("/reviews/{productId}", h.ListProductReviews)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting server", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
