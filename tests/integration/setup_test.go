package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"dompet/internal/handlers"
	"dompet/internal/logger"
	"dompet/internal/middleware"
	"dompet/internal/models"
	"dompet/internal/services"
	"dompet/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Mailer *captureMailer
}

// captureMailer records outgoing mail so tests can pull tokens out of it.
type captureMailer struct {
	lastVerificationToken string
	lastResetToken        string
}

func (m *captureMailer) SendVerificationEmail(_, _, token string) error {
	m.lastVerificationToken = token
	return nil
}

func (m *captureMailer) SendPasswordResetEmail(_, _, token string) error {
	m.lastResetToken = token
	return nil
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:integrationdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Category{},
		&models.Wallet{},
		&models.Transaction{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	mail := &captureMailer{}

	// Services
	userService := services.NewUserService(db, mail)
	walletService := services.NewWalletService(db)
	categoryService := services.NewCategoryService(db, walletService, true)
	transactionService := services.NewTransactionService(db, walletService)
	chartService := services.NewChartService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, nil)
	userHandler := handlers.NewUserHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	walletHandler := handlers.NewWalletHandler(walletService, transactionService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	chartHandler := handlers.NewChartHandler(chartService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.GET("/verify", authHandler.VerifyEmail)
	auth.POST("/resend-verification", authHandler.ResendVerification)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/users/me", userHandler.GetProfile)
	protected.PATCH("/users/me", userHandler.UpdateProfile)
	protected.GET("/users/me/settings", userHandler.GetSettings)
	protected.PATCH("/users/me/settings", userHandler.UpdateSettings)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	wallets := protected.Group("/wallets")
	wallets.POST("", walletHandler.CreateWallet)
	wallets.GET("", walletHandler.GetWallets)
	wallets.GET("/:id", walletHandler.GetWallet)
	wallets.GET("/:id/transactions", walletHandler.GetWalletTransactions)
	wallets.PATCH("/:id", walletHandler.UpdateWallet)
	wallets.DELETE("/:id", walletHandler.DeleteWallet)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PATCH("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	charts := protected.Group("/charts")
	charts.GET("/stacked", chartHandler.StackedChart)
	charts.GET("/pie", chartHandler.PieChart)
	charts.GET("/monthly", chartHandler.MonthlySummary)

	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminOnly())
	admin.GET("/users", userHandler.ListUsers)
	admin.DELETE("/users/:id", userHandler.DeleteUser)

	return &testApp{DB: db, Router: router, Mailer: mail}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseEnvelope parses the uniform response envelope and returns its data.
func parseEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Success    bool                   `json:"success"`
		Message    string                 `json:"message"`
		StatusCode int                    `json:"status_code"`
		Data       map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return envelope.Data
}

// registerAndLogin registers a user, verifies the email using the token
// captured from the outgoing mail, logs in, and returns the tokens.
func (app *testApp) registerAndLogin(t *testing.T, username, email, password string) (accessToken, refreshToken string) {
	t.Helper()

	body := fmt.Sprintf(`{"username":%q,"name":"Test User","email":%q,"password":%q}`, username, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/auth/verify?token="+app.Mailer.lastVerificationToken, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("verify failed: %d %s", rec.Code, rec.Body.String())
	}

	return app.login(t, username, password)
}

// login authenticates and returns the token pair.
func (app *testApp) login(t *testing.T, input, password string) (accessToken, refreshToken string) {
	t.Helper()

	body := fmt.Sprintf(`{"input":%q,"password":%q}`, input, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	data := parseEnvelope(t, rec)
	return data["access_token"].(string), data["refresh_token"].(string)
}
