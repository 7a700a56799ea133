package http

import (
	"github.com/gin-gonic/gin"

	"github.com/devbook/devbook/internal/auth"
	"github.com/devbook/devbook/internal/logging"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	if cfg.Logger != nil {
		router.Use(logging.Middleware(cfg.Logger))
	}
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// Resolve the bearer token, if any; routes below decide what they require
	router.Use(auth.NewMiddleware(cfg.Auth).Handler())

	recorder := recorderFor(cfg.Audit)
	health := NewHealthController(cfg.Database, cfg.Version)
	authController := NewAuthController(cfg.Auth, recorder)
	books := NewBooksController(cfg.Catalog, recorder)
	categories := NewCategoriesController(cfg.Catalog, recorder)
	borrows := NewBorrowsController(cfg.Lending, recorder)
	users := NewUsersController(cfg.Directory, recorder)

	authenticated := auth.Authenticated()
	adminOnly := auth.AdminOnly()

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	api := router.Group("/api")

	// Auth endpoints
	api.POST("/auth/register", authController.Register)
	api.POST("/auth/login", authController.Login)
	api.GET("/auth/verify", authController.Verify)

	// Books endpoints
	api.GET("/books", books.List)
	api.GET("/books/search", books.Search)
	api.GET("/books/status/:status", books.ByStatus)
	api.GET("/books/:id", books.Get)
	api.POST("/books", adminOnly, books.Create)
	api.PUT("/books/:id", adminOnly, books.Update)
	api.DELETE("/books/:id", adminOnly, books.Delete)

	// Category endpoints
	api.GET("/categories", categories.List)
	api.GET("/categories/stats/book-count", categories.BookCounts)
	api.GET("/categories/:id", categories.Get)
	api.POST("/categories", adminOnly, categories.Create)
	api.PUT("/categories/:id", adminOnly, categories.Update)
	api.DELETE("/categories/:id", adminOnly, categories.Delete)

	// Borrow endpoints
	api.GET("/borrows", adminOnly, borrows.List)
	api.GET("/borrows/my", authenticated, borrows.Mine)
	api.GET("/borrows/overdue", adminOnly, borrows.Overdue)
	api.GET("/borrows/stats", adminOnly, borrows.Stats)
	api.GET("/borrows/date/:date", adminOnly, borrows.ByDate)
	api.GET("/borrows/top/:year/:month", adminOnly, borrows.TopForMonth)
	api.POST("/borrows", authenticated, borrows.Create)
	api.PUT("/borrows/:id/return", authenticated, borrows.Return)

	// User endpoints
	api.GET("/users", adminOnly, users.List)
	api.GET("/users/:id", authenticated, users.Get)
	api.PUT("/users/:id", authenticated, users.Update)
	api.DELETE("/users/:id", adminOnly, users.Delete)
	api.GET("/users/:id/borrows", authenticated, users.Borrows)

	// Audit log
	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit)
		api.GET("/audit", adminOnly, auditController.List)
	}

	router.NoRoute(notFound(cfg.StaticPath))

	return router
}
