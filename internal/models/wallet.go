package models

import "github.com/shopspring/decimal"

// Wallet is a named money container with a cached balance.
//
// Invariant: Balance equals the sum of income amounts minus the sum of
// expense amounts over the wallet's live transactions. The wallet service
// recomputes it after every transaction mutation rather than on read.
type Wallet struct {
	Base
	UserID  string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name    string          `gorm:"not null" json:"name"`
	Emoji   string          `gorm:"default:'💰'" json:"emoji"`
	BgColor string          `gorm:"default:'#27B427'" json:"bg_color"`
	Balance decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`

	Transactions []Transaction `gorm:"foreignKey:WalletID" json:"transactions,omitempty"`
}
