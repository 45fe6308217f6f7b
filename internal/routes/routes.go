package routes

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/idempotency"
	"github.com/gofiber/fiber/v2/middleware/session"
	"gorm.io/gorm"

	"github.com/example/horeca/internal/cache"
	"github.com/example/horeca/internal/cart"
	"github.com/example/horeca/internal/config"
	"github.com/example/horeca/internal/enquiry"
	"github.com/example/horeca/internal/handlers"
	"github.com/example/horeca/internal/middleware"
	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/products"
	"github.com/example/horeca/internal/related"
	"github.com/example/horeca/internal/repository"
	"github.com/example/horeca/internal/search"
	"github.com/example/horeca/internal/services"
	"github.com/example/horeca/internal/stats"
	"github.com/example/horeca/internal/tags"
	"github.com/example/horeca/internal/taxonomy"
)

const (
	sessionLifetime     = 24 * time.Hour
	idempotencyLifetime = 30 * time.Minute
	enquiryInterval     = 10 * time.Second
	enquiryBurst        = 5
)

// visitorState is where per-visitor state lives.
type visitorState struct {
	sessions    session.Config
	idempotency idempotency.Config
	carts       cart.Store
}

// sessionState keeps sessions, idempotency replays and carts in Redis when
// the cache is Redis, so any instance can serve a visitor. Otherwise they
// stay in process.
func sessionState(store cache.Store) visitorState {
	st := visitorState{
		sessions: session.Config{
			Expiration:     sessionLifetime,
			KeyLookup:      "cookie:horeca_session",
			CookieHTTPOnly: true,
			CookieSameSite: "Lax",
		},
		idempotency: idempotency.Config{Lifetime: idempotencyLifetime},
		carts:       cart.NewMemory(sessionLifetime),
	}
	if r, ok := store.(*cache.Redis); ok {
		st.sessions.Storage = r.FiberStorage("session")
		st.idempotency.Storage = r.FiberStorage("idempotency")
		st.carts = cart.NewRedis(r.Client(), sessionLifetime)
	}
	return st
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, store cache.Store, cfg *config.Config, log *slog.Logger) {
	productRepo := repository.NewProductRepository(db)

	taxonomyService := taxonomy.NewService(repository.NewTaxonomyRepository(db), log)
	businessTypeService := taxonomy.NewBusinessTypeService(repository.NewBusinessTypeRepository(db), log)
	tagger := tags.NewGenerator(taxonomyService, businessTypeService, log)

	productService := products.NewService(productRepo, taxonomyService, businessTypeService, tagger, store, log)
	searchService := search.NewService(productRepo, taxonomyService)
	relatedService := related.NewService(productRepo, taxonomyService, log)

	state := sessionState(store)
	cartService := cart.NewService(state.carts, productService, cfg.FreeShippingThreshold, log)

	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat, log)
	enquiryService := enquiry.NewService(
		repository.NewEnquiryRepository(db),
		repository.NewCustomerRepository(db),
		productService,
		telegramService,
		store,
		cfg.CountsCacheTTL,
		log,
	)
	statsService := stats.NewService(productRepo, enquiryService, store, cfg.CountsCacheTTL, log)
	aiService := services.NewAIService(cfg.AIEndpoint, cfg.AIAPIKey, cfg.AITimeout, cfg.AICooldown, log)
	uploader := services.NewLocalUploader(cfg.UploadDir, cfg.UploadBaseURL, log)

	sessions := session.New(state.sessions)

	productHandler := handlers.NewProductHandler(productService, searchService, relatedService, tagger)
	categoryHandler := handlers.NewTaxonomyHandler(taxonomyService, models.KindCategory)
	brandHandler := handlers.NewTaxonomyHandler(taxonomyService, models.KindBrand)
	businessTypeHandler := handlers.NewBusinessTypeHandler(businessTypeService)
	cartHandler := handlers.NewCartHandler(cartService, sessions)
	enquiryHandler := handlers.NewEnquiryHandler(enquiryService, cartService, sessions, cfg.WhatsAppPhone)
	adminHandler := handlers.NewAdminHandler(cfg, statsService)
	aiHandler := handlers.NewAIHandler(aiService)
	uploadHandler := handlers.NewUploadHandler(uploader)

	admin := middleware.AdminAuth(cfg.JWTSecret)
	enquiryLimiter := middleware.NewRateLimiter(enquiryInterval, enquiryBurst)

	app.Static(cfg.UploadBaseURL, cfg.UploadDir)

	api := app.Group("/api")

	// Catalog
	productHandler.RegisterProductRoutes(api.Group("/products"), admin)
	categoryHandler.RegisterRoutes(api.Group("/categories"), admin)
	brandHandler.RegisterRoutes(api.Group("/brands"), admin)
	businessTypeHandler.RegisterRoutes(api.Group("/business-types"), admin)

	// Storefront session
	cartHandler.RegisterRoutes(api)

	// Enquiries
	submit := []fiber.Handler{
		enquiryLimiter.Handler(),
		idempotency.New(state.idempotency),
	}
	enquiryHandler.RegisterRoutes(api.Group("/enquiries"), submit, admin)

	// Admin
	adminHandler.RegisterRoutes(api.Group("/admin"), admin)
	api.Post("/ai/generate-description", admin, aiHandler.GenerateDescription)
	api.Post("/upload", admin, uploadHandler.Upload)
}
