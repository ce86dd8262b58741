// Package server assembles the HTTP application: services, handlers and
// routes over one store handle and one change notifier.
package server

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "spendwise/internal/docs" // Import swagger docs
	"spendwise/internal/handlers"
	"spendwise/internal/middleware"
	"spendwise/internal/notifier"
	"spendwise/internal/services"
)

// Deps are the process-wide resources the router is built from.
type Deps struct {
	DB  *gorm.DB
	Hub *notifier.Hub
	// Publisher receives every change event. Nil publishes straight to Hub;
	// a Bridge is passed here when events are shared between instances.
	Publisher notifier.Publisher
	Tokens    *middleware.TokenManager

	CORSOrigin string
	KeepAlive  time.Duration
}

// NewRouter wires services and handlers and registers every route.
func NewRouter(d Deps) *gin.Engine {
	publisher := d.Publisher
	if publisher == nil {
		publisher = d.Hub
	}

	// Initialize services
	userService := services.NewUserService(d.DB)
	expenseService := services.NewExpenseService(d.DB, publisher)
	categoryService := services.NewCategoryService(d.DB, publisher)
	auditService := services.NewAuditService(d.DB)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService, d.Tokens)
	expenseHandler := handlers.NewExpenseHandler(expenseService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	streamHandler := handlers.NewStreamHandler(d.Hub, d.KeepAlive)

	var pinger handlers.Pinger
	if sqlDB, err := d.DB.DB(); err == nil {
		pinger = sqlDB
	}

	origin := d.CORSOrigin
	if origin == "" {
		origin = "*"
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.CORS(origin))
	router.Use(middleware.ErrorHandler())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	api.GET("/health", handlers.Health(pinger))

	// Public routes
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Push channel
	api.GET("/events", middleware.StreamAuthMiddleware(d.Tokens), streamHandler.Events)

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(d.Tokens))

	protected.GET("/profile", authHandler.GetProfile)

	expenses := protected.Group("/expenses")
	expenses.GET("", expenseHandler.ListExpenses)
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.DELETE("/batch/delete", expenseHandler.DeleteExpenses)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	categories := protected.Group("/categories")
	categories.GET("", categoryHandler.GetCategories)
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	return router
}
