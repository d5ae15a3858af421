package models

import "time"

// UserRole distinguishes ordinary users from administrators.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User represents an account holder. Every category, wallet, and transaction
// is owned by exactly one user.
type User struct {
	Base
	Username string   `gorm:"uniqueIndex;not null" json:"username"`
	Name     string   `gorm:"not null" json:"name"`
	Emoji    string   `gorm:"default:'😎'" json:"emoji"`
	Email    string   `gorm:"uniqueIndex;not null" json:"email"`
	Password string   `json:"-"`
	Role     UserRole `gorm:"not null;default:'user'" json:"role"`

	// Frontend preferences. The budgeting cycle starts on this day of the
	// month (1-31).
	CycleStartDate   int     `gorm:"default:1" json:"cycle_start_date"`
	DarkMode         bool    `gorm:"default:false" json:"dark_mode"`
	SelectedWalletID *string `json:"selected_wallet_id,omitempty"`

	IsVerified           bool       `gorm:"default:false" json:"is_verified"`
	VerificationToken    string     `json:"-"`
	ResetPasswordToken   string     `json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`

	// Set when the account was created or linked via Google OAuth.
	GoogleID string `gorm:"index" json:"-"`

	RefreshTokenHash string     `gorm:"size:64" json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	Categories   []Category    `gorm:"foreignKey:UserID" json:"categories,omitempty"`
	Wallets      []Wallet      `gorm:"foreignKey:UserID" json:"wallets,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
}
