package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"dompet/internal/config"
	"dompet/internal/database"
	"dompet/internal/handlers"
	"dompet/internal/logger"
	"dompet/internal/mailer"
	"dompet/internal/middleware"
	"dompet/internal/oauth"
	"dompet/internal/services"
	"dompet/internal/validator"

	_ "dompet/internal/docs" // Import swagger docs
)

// @title           Dompet API
// @version         1.0
// @description     Dompet is a personal finance backend for tracking wallets, categorized income and expenses, and spending reports.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Initialize services
	db := dbManager.DB()
	mail := mailer.New(appConfig)
	userService := services.NewUserService(db, mail)
	walletService := services.NewWalletService(db)
	categoryService := services.NewCategoryService(db, walletService, appConfig.UniqueCategoryNames)
	transactionService := services.NewTransactionService(db, walletService)
	chartService := services.NewChartService(db)

	// Initialize handlers
	googleClient := oauth.NewGoogleClient(appConfig)
	if googleClient == nil {
		log.Info("Google OAuth credentials not set, Google login disabled")
	}
	authHandler := handlers.NewAuthHandler(userService, googleClient)
	userHandler := handlers.NewUserHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	walletHandler := handlers.NewWalletHandler(walletService, transactionService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	chartHandler := handlers.NewChartHandler(chartService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.GET("/verify", authHandler.VerifyEmail)
	auth.POST("/resend-verification", authHandler.ResendVerification)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.GET("/google", authHandler.GoogleLogin)
	auth.GET("/google/callback", authHandler.GoogleCallback)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile and settings
	protected.GET("/users/me", userHandler.GetProfile)
	protected.PATCH("/users/me", userHandler.UpdateProfile)
	protected.GET("/users/me/settings", userHandler.GetSettings)
	protected.PATCH("/users/me/settings", userHandler.UpdateSettings)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Wallet routes
	wallets := protected.Group("/wallets")
	wallets.POST("", walletHandler.CreateWallet)
	wallets.GET("", walletHandler.GetWallets)
	wallets.GET("/:id", walletHandler.GetWallet)
	wallets.GET("/:id/transactions", walletHandler.GetWalletTransactions)
	wallets.PATCH("/:id", walletHandler.UpdateWallet)
	wallets.DELETE("/:id", walletHandler.DeleteWallet)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PATCH("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Chart routes
	charts := protected.Group("/charts")
	charts.GET("/stacked", chartHandler.StackedChart)
	charts.GET("/pie", chartHandler.PieChart)
	charts.GET("/monthly", chartHandler.MonthlySummary)

	// Admin routes
	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminOnly())
	admin.GET("/users", userHandler.ListUsers)
	admin.DELETE("/users/:id", userHandler.DeleteUser)

	log.Infof("Starting Dompet backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
