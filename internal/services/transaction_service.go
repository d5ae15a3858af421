package services

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db      *gorm.DB
	wallets WalletServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, wallets WalletServicer) TransactionServicer {
	return &transactionService{db: db, wallets: wallets}
}

// CreateTransaction records a transaction. The transaction's type always
// mirrors its category's type, and the wallet's balance is recomputed
// afterwards.
func (s *transactionService) CreateTransaction(
	userID string,
	amount decimal.Decimal,
	description, categoryID, walletID string,
	date time.Time,
) (*models.Transaction, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "description is required")
	}
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "amount must be greater than zero")
	}
	if date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "date is required")
	}

	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var wallet models.Wallet
	if err := s.db.Where("id = ? AND user_id = ?", walletID, userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	transaction := &models.Transaction{
		UserID:      userID,
		WalletID:    walletID,
		CategoryID:  categoryID,
		Type:        models.TransactionType(category.Type),
		Amount:      amount,
		Description: description,
		Date:        date,
	}

	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.wallets.RecomputeBalance(walletID); err != nil {
		return nil, err
	}

	return transaction, nil
}

// GetTransactionByID retrieves a transaction by ID for a specific user.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Preload("Category").Preload("Wallet").
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// ListTransactions returns the user's transactions grouped by calendar day,
// newest day first, plus income/expense totals over the filtered set.
func (s *transactionService) ListTransactions(userID string, filter TransactionFilter) (*TransactionList, error) {
	query := s.db.Preload("Category").Where("user_id = ?", userID)
	if filter.WalletID != nil {
		query = query.Where("wallet_id = ?", *filter.WalletID)
	}
	if filter.StartDate != nil {
		query = query.Where("date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("date <= ?", *filter.EndDate)
	}

	var transactions []models.Transaction
	if err := query.Order("date DESC").Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	list := &TransactionList{
		ListGroup:    []TransactionGroup{},
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}

	index := make(map[string]int)
	for _, t := range transactions {
		switch t.Type {
		case models.TransactionTypeIncome:
			list.TotalIncome = list.TotalIncome.Add(t.Amount)
		case models.TransactionTypeExpense:
			list.TotalExpense = list.TotalExpense.Add(t.Amount)
		}

		day := t.Date.Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			i = len(list.ListGroup)
			index[day] = i
			list.ListGroup = append(list.ListGroup, TransactionGroup{Date: day})
		}
		list.ListGroup[i].Transactions = append(list.ListGroup[i].Transactions, t)
	}

	// Within one day the date column carries no order, so fall back to
	// insertion order.
	for i := range list.ListGroup {
		group := list.ListGroup[i].Transactions
		sort.SliceStable(group, func(a, b int) bool {
			return group[a].CreatedAt.After(group[b].CreatedAt)
		})
	}

	list.RemainingBalance = list.TotalIncome.Sub(list.TotalExpense)
	return list, nil
}

// UpdateTransaction applies a partial update. Changing the category re-derives
// the transaction's type; the balances of every touched wallet are recomputed.
func (s *transactionService) UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ?", transactionID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if transaction.UserID != userID {
		return nil, apperrors.ErrForbidden
	}

	previousWalletID := transaction.WalletID

	if fields.Amount != nil {
		if !fields.Amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "amount must be greater than zero")
		}
		transaction.Amount = *fields.Amount
	}
	if fields.Description != nil {
		trimmed := strings.TrimSpace(*fields.Description)
		if trimmed == "" {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "description cannot be empty")
		}
		transaction.Description = trimmed
	}
	if fields.Date != nil && !fields.Date.IsZero() {
		transaction.Date = *fields.Date
	}
	if fields.CategoryID != nil {
		var category models.Category
		if err := s.db.Where("id = ? AND user_id = ?", *fields.CategoryID, userID).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrCategoryNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		transaction.CategoryID = category.ID
		transaction.Type = models.TransactionType(category.Type)
	}
	if fields.WalletID != nil {
		var wallet models.Wallet
		if err := s.db.Where("id = ? AND user_id = ?", *fields.WalletID, userID).First(&wallet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrWalletNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		transaction.WalletID = wallet.ID
	}

	if err := s.db.Save(&transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.wallets.RecomputeBalance(previousWalletID); err != nil {
		return nil, err
	}
	if transaction.WalletID != previousWalletID {
		if err := s.wallets.RecomputeBalance(transaction.WalletID); err != nil {
			return nil, err
		}
	}

	return &transaction, nil
}

// DeleteTransaction removes a transaction and recomputes its wallet's balance.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	var transaction models.Transaction
	if err := s.db.Where("id = ?", transactionID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTransactionNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if transaction.UserID != userID {
		return apperrors.ErrForbidden
	}

	if err := s.db.Delete(&transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.wallets.RecomputeBalance(transaction.WalletID)
}
