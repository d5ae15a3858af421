package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"dompet/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a verified user with a hashed password and unique
// username and email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	n := nextID()
	return CreateTestUserWithEmail(t, db, fmt.Sprintf("user%d@test.com", n))
}

// CreateTestUserWithEmail creates a verified user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username:   fmt.Sprintf("user%d", nextID()),
		Name:       "Test User",
		Email:      email,
		Password:   string(hash),
		Role:       models.RoleUser,
		IsVerified: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a top-level category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Emoji:  "📁",
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestChildCategory creates a category nested under the given parent.
func CreateTestChildCategory(t *testing.T, db *gorm.DB, userID string, parent *models.Category) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID:   userID,
		Emoji:    "📂",
		Name:     fmt.Sprintf("Test Child Category %d", nextID()),
		Type:     parent.Type,
		ParentID: &parent.ID,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test child category: %v", err)
	}
	return category
}

// CreateSystemCategories creates the pair of system adjustment categories a
// seeded user would have.
func CreateSystemCategories(t *testing.T, db *gorm.DB, userID string) (income, expense *models.Category) {
	t.Helper()

	income = &models.Category{
		UserID: userID,
		Emoji:  "💰",
		Name:   "Other Income",
		Type:   models.CategoryTypeIncome,
		System: true,
	}
	expense = &models.Category{
		UserID: userID,
		Emoji:  "🧾",
		Name:   "Other Expense",
		Type:   models.CategoryTypeExpense,
		System: true,
	}
	if err := db.Create(income).Error; err != nil {
		t.Fatalf("failed to create system income category: %v", err)
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create system expense category: %v", err)
	}
	return income, expense
}

// CreateTestWallet creates a wallet with zero balance.
func CreateTestWallet(t *testing.T, db *gorm.DB, userID string) *models.Wallet {
	t.Helper()
	return CreateTestWalletWithBalance(t, db, userID, decimal.Zero)
}

// CreateTestWalletWithBalance creates a wallet with the given cached balance.
// No transactions are created; callers that need a consistent history should
// book transactions and recompute instead.
func CreateTestWalletWithBalance(t *testing.T, db *gorm.DB, userID string, balance decimal.Decimal) *models.Wallet {
	t.Helper()

	wallet := &models.Wallet{
		UserID:  userID,
		Name:    fmt.Sprintf("Test Wallet %d", nextID()),
		Emoji:   "💰",
		BgColor: "#27B427",
		Balance: balance,
	}
	if err := db.Create(wallet).Error; err != nil {
		t.Fatalf("failed to create test wallet: %v", err)
	}
	return wallet
}

// CreateTestTransaction creates a transaction in the given category's type.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, wallet *models.Wallet, category *models.Category, amount decimal.Decimal) *models.Transaction {
	t.Helper()
	return CreateTestTransactionOn(t, db, userID, wallet, category, amount, time.Now())
}

// CreateTestTransactionOn creates a transaction dated at the given time.
func CreateTestTransactionOn(t *testing.T, db *gorm.DB, userID string, wallet *models.Wallet, category *models.Category, amount decimal.Decimal, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:      userID,
		WalletID:    wallet.ID,
		CategoryID:  category.ID,
		Type:        models.TransactionType(category.Type),
		Amount:      amount,
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
		Date:        date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}
