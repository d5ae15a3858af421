package services

import (
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/models"
	"dompet/internal/pagination"
)

// ProfileUpdateFields holds optional profile fields for a partial update.
type ProfileUpdateFields struct {
	Name  *string
	Emoji *string
}

// SettingsUpdateFields holds optional preference fields for a partial update.
type SettingsUpdateFields struct {
	CycleStartDate   *int
	DarkMode         *bool
	SelectedWalletID *string
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	Register(username, name, email, password string) (*models.User, error)
	VerifyEmail(token string) (*models.User, error)
	ResendVerification(email string) error
	AttemptLogin(input, password string) (*models.User, error)
	LoginWithGoogle(googleID, email, name string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	UpdateProfile(userID string, fields ProfileUpdateFields) (*models.User, error)
	UpdateSettings(userID string, fields SettingsUpdateFields) (*models.User, error)
	ListUsers(page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	DeleteUser(userID string) error
	RequestPasswordReset(email string) error
	ResetPassword(token, newPassword string) error
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// CategoryNode is a top-level category with its children attached, as
// returned by the tree listing.
type CategoryNode struct {
	models.Category
	SubCategories []models.Category `json:"subCategories"`
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, emoji, name string, categoryType models.CategoryType, parentID *string) (*models.Category, error)
	GetCategoryTree(userID string) ([]CategoryNode, error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID, emoji, name string, categoryType models.CategoryType, parentID *string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// WalletUpdateFields holds optional wallet fields for a partial update.
// A non-nil Balance routes through adjustment-transaction synthesis.
type WalletUpdateFields struct {
	Name    *string
	Emoji   *string
	BgColor *string
	Balance *decimal.Decimal
}

// WalletServicer defines the contract for wallet and balance-reconciliation logic.
type WalletServicer interface {
	CreateWallet(userID, name, emoji, bgColor string, openingBalance decimal.Decimal) (*models.Wallet, error)
	GetUserWallets(userID string) ([]models.Wallet, error)
	GetWalletByID(userID, walletID string) (*models.Wallet, error)
	UpdateWallet(userID, walletID string, fields WalletUpdateFields) (*models.Wallet, error)
	DeleteWallet(userID, walletID string) error
	RecomputeBalance(walletID string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	WalletID  *string
	StartDate *time.Time
	EndDate   *time.Time
}

// TransactionUpdateFields holds optional transaction fields for a partial update.
type TransactionUpdateFields struct {
	Amount      *decimal.Decimal
	Description *string
	CategoryID  *string
	Date        *time.Time
	WalletID    *string
}

// TransactionGroup is one calendar day of transactions, newest first.
type TransactionGroup struct {
	Date         string               `json:"date"`
	Transactions []models.Transaction `json:"transactions"`
}

// TransactionList is the grouped listing plus totals over the filtered set.
type TransactionList struct {
	ListGroup        []TransactionGroup `json:"listGroup"`
	TotalIncome      decimal.Decimal    `json:"totalIncome"`
	TotalExpense     decimal.Decimal    `json:"totalExpense"`
	RemainingBalance decimal.Decimal    `json:"remainingBalance"`
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, amount decimal.Decimal, description, categoryID, walletID string, date time.Time) (*models.Transaction, error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	ListTransactions(userID string, filter TransactionFilter) (*TransactionList, error)
	UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}

// MonthlyTotals is one month of the stacked chart. Month is the stable ISO
// key ("2006-01"); Label is the display form ("January 2006").
type MonthlyTotals struct {
	Month            string          `json:"month"`
	Label            string          `json:"label"`
	TotalIncome      decimal.Decimal `json:"totalIncome"`
	TotalExpense     decimal.Decimal `json:"totalExpense"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

// StackedChartData is the stacked chart plus grand totals over the range.
type StackedChartData struct {
	ChartData        []MonthlyTotals `json:"chartData"`
	TotalIncome      decimal.Decimal `json:"totalIncome"`
	TotalExpense     decimal.Decimal `json:"totalExpense"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

// PieChartEntry is one contributing transaction inside a pie chart group.
type PieChartEntry struct {
	TransactionID string          `json:"id"`
	Emoji         string          `json:"emoji"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
}

// PieChartGroup aggregates transactions under a top-level category. Child
// category amounts roll up into the parent's Total; the contributing
// transactions are retained in ListChildCategory.
type PieChartGroup struct {
	CategoryID        string              `json:"category_id"`
	Name              string              `json:"category"`
	Emoji             string              `json:"emoji"`
	Type              models.CategoryType `json:"type"`
	Total             decimal.Decimal     `json:"total"`
	ListChildCategory []PieChartEntry     `json:"listChildCategory"`
}

// DailySummary is one calendar day of the monthly summary.
type DailySummary struct {
	Date         string          `json:"date"`
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
}

// ChartServicer defines the contract for read-only reporting.
type ChartServicer interface {
	StackedChart(userID string, startDate, endDate *time.Time) (*StackedChartData, error)
	PieChart(userID string, startDate, endDate *time.Time, categoryType *models.CategoryType) ([]PieChartGroup, error)
	MonthlySummary(userID string, year int, month time.Month) ([]DailySummary, error)
}
