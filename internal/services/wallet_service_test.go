package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"dompet/internal/models"
	"dompet/internal/testutil"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCreateWallet(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)

		wallet, err := svc.CreateWallet(user.ID, "Cash", "💵", "#27B427", decimal.Zero)
		testutil.AssertNoError(t, err)

		if wallet.ID == "" {
			t.Fatal("expected non-empty wallet ID")
		}
		if wallet.Name != "Cash" {
			t.Errorf("expected name Cash, got %s", wallet.Name)
		}
		testutil.AssertDecimalEqual(t, "0", wallet.Balance)

		var txCount int64
		db.Model(&models.Transaction{}).Where("wallet_id = ?", wallet.ID).Count(&txCount)
		if txCount != 0 {
			t.Errorf("expected no transactions for zero opening balance, got %d", txCount)
		}
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateWallet(user.ID, "  ", "", "", decimal.Zero)
		testutil.AssertAppError(t, err, "VALIDATION_FAILED")
	})

	t.Run("positive_opening_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)
		income, _ := testutil.CreateSystemCategories(t, db, user.ID)

		wallet, err := svc.CreateWallet(user.ID, "Bank", "🏦", "#27B427", dec("100"))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "100", wallet.Balance)

		var tx models.Transaction
		if err := db.Where("wallet_id = ?", wallet.ID).First(&tx).Error; err != nil {
			t.Fatalf("expected an opening transaction: %v", err)
		}
		if tx.Type != models.TransactionTypeIncome {
			t.Errorf("expected opening transaction type income, got %s", tx.Type)
		}
		if tx.CategoryID != income.ID {
			t.Errorf("expected system income category, got %s", tx.CategoryID)
		}
		if tx.Description != "Opening balance" {
			t.Errorf("unexpected description %q", tx.Description)
		}
		testutil.AssertDecimalEqual(t, "100", tx.Amount)
	})

	t.Run("negative_opening_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)
		_, expense := testutil.CreateSystemCategories(t, db, user.ID)

		wallet, err := svc.CreateWallet(user.ID, "Overdraft", "💳", "#FF0000", dec("-40"))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "-40", wallet.Balance)

		var tx models.Transaction
		if err := db.Where("wallet_id = ?", wallet.ID).First(&tx).Error; err != nil {
			t.Fatalf("expected an opening transaction: %v", err)
		}
		if tx.Type != models.TransactionTypeExpense {
			t.Errorf("expected opening transaction type expense, got %s", tx.Type)
		}
		if tx.CategoryID != expense.ID {
			t.Errorf("expected system expense category, got %s", tx.CategoryID)
		}
		testutil.AssertDecimalEqual(t, "40", tx.Amount)
	})

	t.Run("missing_system_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateWallet(user.ID, "Bank", "", "", dec("50"))
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")

		var count int64
		db.Model(&models.Wallet{}).Where("user_id = ?", user.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected no wallet created on failure, got %d", count)
		}
	})
}

func TestGetUserWallets(t *testing.T) {
	t.Run("returns_user_wallets_only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)

		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		testutil.CreateTestWallet(t, db, user1.ID)
		testutil.CreateTestWallet(t, db, user1.ID)
		testutil.CreateTestWallet(t, db, user2.ID)

		wallets, err := svc.GetUserWallets(user1.ID)
		testutil.AssertNoError(t, err)
		if len(wallets) != 2 {
			t.Errorf("expected 2 wallets, got %d", len(wallets))
		}
	})
}

func TestGetWalletByID(t *testing.T) {
	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.GetWalletByID(user.ID, "00000000-0000-0000-0000-000000000000")
		testutil.AssertAppError(t, err, "WALLET_NOT_FOUND")
	})

	t.Run("other_users_wallet", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)

		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		wallet := testutil.CreateTestWallet(t, db, owner.ID)

		_, err := svc.GetWalletByID(intruder.ID, wallet.ID)
		testutil.AssertAppError(t, err, "WALLET_NOT_FOUND")
	})
}

func TestUpdateWallet(t *testing.T) {
	t.Run("display_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)
		wallet := testutil.CreateTestWallet(t, db, user.ID)

		name := "Renamed"
		emoji := "🪙"
		color := "#112233"
		updated, err := svc.UpdateWallet(user.ID, wallet.ID, WalletUpdateFields{Name: &name, Emoji: &emoji, BgColor: &color})
		testutil.AssertNoError(t, err)

		if updated.Name != "Renamed" || updated.Emoji != "🪙" || updated.BgColor != "#112233" {
			t.Errorf("unexpected wallet after update: %+v", updated)
		}

		var txCount int64
		db.Model(&models.Transaction{}).Where("wallet_id = ?", wallet.ID).Count(&txCount)
		if txCount != 0 {
			t.Errorf("display update must not create transactions, got %d", txCount)
		}
	})

	t.Run("balance_increase_books_income_adjustment", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)
		income, _ := testutil.CreateSystemCategories(t, db, user.ID)
		wallet := testutil.CreateTestWallet(t, db, user.ID)

		newBalance := dec("75.50")
		updated, err := svc.UpdateWallet(user.ID, wallet.ID, WalletUpdateFields{Balance: &newBalance})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "75.50", updated.Balance)

		var tx models.Transaction
		if err := db.Where("wallet_id = ?", wallet.ID).First(&tx).Error; err != nil {
			t.Fatalf("expected an adjustment transaction: %v", err)
		}
		if tx.Type != models.TransactionTypeIncome || tx.CategoryID != income.ID {
			t.Errorf("expected income adjustment in system category, got type=%s category=%s", tx.Type, tx.CategoryID)
		}
		if tx.Description != "Balance adjustment" {
			t.Errorf("unexpected description %q", tx.Description)
		}
		testutil.AssertDecimalEqual(t, "75.50", tx.Amount)
	})

	t.Run("balance_decrease_books_expense_adjustment", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)
		_, expense := testutil.CreateSystemCategories(t, db, user.ID)
		wallet := testutil.CreateTestWalletWithBalance(t, db, user.ID, dec("100"))

		newBalance := dec("30")
		updated, err := svc.UpdateWallet(user.ID, wallet.ID, WalletUpdateFields{Balance: &newBalance})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "30", updated.Balance)

		var tx models.Transaction
		if err := db.Where("wallet_id = ?", wallet.ID).First(&tx).Error; err != nil {
			t.Fatalf("expected an adjustment transaction: %v", err)
		}
		if tx.Type != models.TransactionTypeExpense || tx.CategoryID != expense.ID {
			t.Errorf("expected expense adjustment in system category, got type=%s category=%s", tx.Type, tx.CategoryID)
		}
		testutil.AssertDecimalEqual(t, "70", tx.Amount)
	})

	t.Run("same_balance_is_noop", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateSystemCategories(t, db, user.ID)
		wallet := testutil.CreateTestWalletWithBalance(t, db, user.ID, dec("50"))

		newBalance := dec("50.00")
		_, err := svc.UpdateWallet(user.ID, wallet.ID, WalletUpdateFields{Balance: &newBalance})
		testutil.AssertNoError(t, err)

		var txCount int64
		db.Model(&models.Transaction{}).Where("wallet_id = ?", wallet.ID).Count(&txCount)
		if txCount != 0 {
			t.Errorf("expected no adjustment for unchanged balance, got %d", txCount)
		}
	})
}

func TestDeleteWallet(t *testing.T) {
	t.Run("cascades_to_transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		wallet := testutil.CreateTestWallet(t, db, user.ID)
		testutil.CreateTestTransaction(t, db, user.ID, wallet, category, dec("10"))
		testutil.CreateTestTransaction(t, db, user.ID, wallet, category, dec("20"))

		err := svc.DeleteWallet(user.ID, wallet.ID)
		testutil.AssertNoError(t, err)

		var txCount int64
		db.Model(&models.Transaction{}).Where("wallet_id = ?", wallet.ID).Count(&txCount)
		if txCount != 0 {
			t.Errorf("expected wallet transactions deleted, got %d", txCount)
		}

		_, err = svc.GetWalletByID(user.ID, wallet.ID)
		testutil.AssertAppError(t, err, "WALLET_NOT_FOUND")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)

		err := svc.DeleteWallet(user.ID, "00000000-0000-0000-0000-000000000000")
		testutil.AssertAppError(t, err, "WALLET_NOT_FOUND")
	})
}

func TestRecomputeBalance(t *testing.T) {
	t.Run("income_minus_expense", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)
		income := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)
		expense := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		wallet := testutil.CreateTestWallet(t, db, user.ID)

		testutil.CreateTestTransaction(t, db, user.ID, wallet, income, dec("100"))
		testutil.CreateTestTransaction(t, db, user.ID, wallet, expense, dec("30"))
		testutil.CreateTestTransaction(t, db, user.ID, wallet, income, dec("50"))

		err := svc.RecomputeBalance(wallet.ID)
		testutil.AssertNoError(t, err)

		updated, err := svc.GetWalletByID(user.ID, wallet.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "120", updated.Balance)
	})

	t.Run("no_transactions_means_zero", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewWalletService(db)
		user := testutil.CreateTestUser(t, db)
		wallet := testutil.CreateTestWalletWithBalance(t, db, user.ID, dec("999"))

		err := svc.RecomputeBalance(wallet.ID)
		testutil.AssertNoError(t, err)

		updated, err := svc.GetWalletByID(user.ID, wallet.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "0", updated.Balance)
	})
}
