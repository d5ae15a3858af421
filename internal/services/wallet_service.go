package services

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
)

// Descriptions of synthesized transactions.
const (
	openingBalanceDescription    = "Opening balance"
	balanceAdjustmentDescription = "Balance adjustment"
)

// walletService handles wallet lifecycle and balance reconciliation.
type walletService struct {
	db    *gorm.DB
	locks walletLocks
}

// NewWalletService creates a new WalletServicer.
func NewWalletService(db *gorm.DB) WalletServicer {
	return &walletService{db: db}
}

// walletLocks serializes reconciliation per wallet. Reading a wallet's
// transactions and writing the derived balance is not atomic against
// concurrent mutations on the same wallet without it.
type walletLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (l *walletLocks) get(walletID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.m == nil {
		l.m = make(map[string]*sync.Mutex)
	}
	lock, ok := l.m[walletID]
	if !ok {
		lock = &sync.Mutex{}
		l.m[walletID] = lock
	}
	return lock
}

// CreateWallet creates a wallet. A non-zero opening balance is materialized
// as a synthesized transaction against the user's system category of the
// matching type, so the transaction history stays complete.
func (s *walletService) CreateWallet(userID, name, emoji, bgColor string, openingBalance decimal.Decimal) (*models.Wallet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "wallet name is required")
	}

	wallet := &models.Wallet{
		UserID:  userID,
		Name:    name,
		Emoji:   strings.TrimSpace(emoji),
		BgColor: bgColor,
		Balance: openingBalance,
	}

	if openingBalance.IsZero() {
		if err := s.db.Create(wallet).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return wallet, nil
	}

	category, err := s.systemCategory(s.db, userID, typeForDiff(openingBalance))
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(wallet).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		opening := &models.Transaction{
			UserID:      userID,
			WalletID:    wallet.ID,
			CategoryID:  category.ID,
			Type:        models.TransactionType(category.Type),
			Amount:      openingBalance.Abs(),
			Description: openingBalanceDescription,
			Date:        time.Now(),
		}
		if err := tx.Create(opening).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return wallet, nil
}

// GetUserWallets returns the user's wallets, newest first.
func (s *walletService) GetUserWallets(userID string) ([]models.Wallet, error) {
	var wallets []models.Wallet
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&wallets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return wallets, nil
}

// GetWalletByID retrieves a wallet by ID for a specific user.
func (s *walletService) GetWalletByID(userID, walletID string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := s.db.Where("id = ? AND user_id = ?", walletID, userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &wallet, nil
}

// UpdateWallet updates a wallet. Display edits apply in place; a balance
// edit synthesizes one adjustment transaction for the difference and then
// sets the new balance, keeping history consistent with the cached value.
func (s *walletService) UpdateWallet(userID, walletID string, fields WalletUpdateFields) (*models.Wallet, error) {
	wallet, err := s.GetWalletByID(userID, walletID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil && strings.TrimSpace(*fields.Name) != "" {
		updates["name"] = strings.TrimSpace(*fields.Name)
	}
	if fields.Emoji != nil {
		updates["emoji"] = strings.TrimSpace(*fields.Emoji)
	}
	if fields.BgColor != nil {
		updates["bg_color"] = *fields.BgColor
	}

	if len(updates) > 0 {
		if err := s.db.Model(wallet).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	if fields.Balance != nil {
		if err := s.adjustBalance(userID, walletID, *fields.Balance); err != nil {
			return nil, err
		}
	}

	return s.GetWalletByID(userID, walletID)
}

// adjustBalance moves a wallet's balance to newBalance by booking one
// adjustment transaction of abs(diff) against the matching system category.
func (s *walletService) adjustBalance(userID, walletID string, newBalance decimal.Decimal) error {
	lock := s.locks.get(walletID)
	lock.Lock()
	defer lock.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		var wallet models.Wallet
		if err := tx.Where("id = ? AND user_id = ?", walletID, userID).First(&wallet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrWalletNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		diff := newBalance.Sub(wallet.Balance)
		if diff.IsZero() {
			return nil
		}

		category, err := s.systemCategory(tx, userID, typeForDiff(diff))
		if err != nil {
			return err
		}

		adjustment := &models.Transaction{
			UserID:      userID,
			WalletID:    walletID,
			CategoryID:  category.ID,
			Type:        models.TransactionType(category.Type),
			Amount:      diff.Abs(),
			Description: balanceAdjustmentDescription,
			Date:        time.Now(),
		}
		if err := tx.Create(adjustment).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Model(&wallet).Update("balance", newBalance).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// DeleteWallet deletes a wallet and every transaction referencing it,
// children first, inside one transaction.
func (s *walletService) DeleteWallet(userID, walletID string) error {
	wallet, err := s.GetWalletByID(userID, walletID)
	if err != nil {
		return err
	}

	lock := s.locks.get(walletID)
	lock.Lock()
	defer lock.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("wallet_id = ? AND user_id = ?", walletID, userID).
			Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(wallet).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// RecomputeBalance derives a wallet's balance from its transaction set:
// income sum minus expense sum, written back as the cached balance. Must be
// called after every transaction mutation that touches the wallet.
func (s *walletService) RecomputeBalance(walletID string) error {
	lock := s.locks.get(walletID)
	lock.Lock()
	defer lock.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		type typeSum struct {
			Type  models.TransactionType
			Total decimal.Decimal
		}
		var sums []typeSum
		if err := tx.Model(&models.Transaction{}).
			Select("type, COALESCE(SUM(amount), 0) AS total").
			Where("wallet_id = ?", walletID).
			Group("type").
			Scan(&sums).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		balance := decimal.Zero
		for _, s := range sums {
			switch s.Type {
			case models.TransactionTypeIncome:
				balance = balance.Add(s.Total)
			case models.TransactionTypeExpense:
				balance = balance.Sub(s.Total)
			}
		}

		if err := tx.Model(&models.Wallet{}).
			Where("id = ?", walletID).
			Update("balance", balance).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// systemCategory resolves the user's seeded adjustment category of the given
// type. It is required for opening-balance and balance-edit synthesis, which
// is why system categories are protected from deletion.
func (s *walletService) systemCategory(tx *gorm.DB, userID string, categoryType models.CategoryType) (*models.Category, error) {
	var category models.Category
	if err := tx.Where("user_id = ? AND type = ? AND system = ?", userID, categoryType, true).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrCategoryNotFound, "adjustment category not found")
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// typeForDiff maps the sign of a balance delta to a category type.
func typeForDiff(diff decimal.Decimal) models.CategoryType {
	if diff.IsPositive() {
		return models.CategoryTypeIncome
	}
	return models.CategoryTypeExpense
}
