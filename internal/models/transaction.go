package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType mirrors the type of the transaction's category.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Transaction records a single money movement against a wallet.
//
// Amount is always stored positive; the sign is implied by Type. Type is
// copied from the referenced category whenever the transaction is created or
// updated, never set directly by callers.
type Transaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	WalletID    string          `gorm:"type:uuid;not null;index" json:"wallet_id"`
	CategoryID  string          `gorm:"type:uuid;not null;index" json:"category_id"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Description string          `gorm:"not null" json:"description"`
	Date        time.Time       `gorm:"not null;index" json:"date"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Wallet   *Wallet   `gorm:"foreignKey:WalletID" json:"wallet,omitempty"`
}
