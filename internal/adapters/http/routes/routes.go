package routes

import (
	"shelftrack/internal/adapters/http/handlers"
	"shelftrack/internal/adapters/http/middleware"
	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/config"
	"shelftrack/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	borrowRepo := repositories.NewBorrowRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	bookService := services.NewBookService(bookRepo)
	memberService := services.NewMemberService(memberRepo)
	borrowService := services.NewBorrowService(borrowRepo, bookRepo, memberRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	bookHandler := handlers.NewBookHandler(bookService)
	memberHandler := handlers.NewMemberHandler(memberService)
	borrowHandler := handlers.NewBorrowHandler(borrowService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes (public, rate limited)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Catalog routes (authenticated staff)
	bookRoutes := apiV1.Group("/books")
	bookRoutes.Use(middleware.AuthMiddleware(cfg))
	setupBookRoutes(bookRoutes, bookHandler)

	// Member registry routes (authenticated staff)
	memberRoutes := apiV1.Group("/members")
	memberRoutes.Use(middleware.AuthMiddleware(cfg))
	setupMemberRoutes(memberRoutes, memberHandler)

	// Lending ledger routes (authenticated staff)
	borrowRoutes := apiV1.Group("/borrow")
	borrowRoutes.Use(middleware.AuthMiddleware(cfg))
	setupBorrowRoutes(borrowRoutes, borrowHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupBookRoutes configures catalog routes
func setupBookRoutes(router fiber.Router, handler *handlers.BookHandler) {
	router.Post("/", handler.Create)
	router.Get("/", handler.List)
	router.Get("/:id", handler.GetByID)
	router.Put("/:id", handler.Update)
}

// setupMemberRoutes configures member registry routes
func setupMemberRoutes(router fiber.Router, handler *handlers.MemberHandler) {
	router.Post("/", handler.Create)
	router.Get("/", handler.List)
	router.Get("/:id", handler.GetByID)
	router.Put("/:id", handler.Update)
}

// setupBorrowRoutes configures lending ledger routes
func setupBorrowRoutes(router fiber.Router, handler *handlers.BorrowHandler) {
	router.Post("/", handler.Borrow)
	router.Get("/", handler.List)
	router.Get("/:id", handler.GetByID)
	router.Patch("/:id/return", handler.Return)
}
