package models

// CategoryType tags a category as money coming in or going out.
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category labels transactions. Nesting is at most one level deep: a parent
// category always has ParentID == nil, and a category that has children can
// never itself become a child.
//
// The System flag marks the per-user "Other Income"/"Other Expense" pair
// seeded at registration. Balance adjustments are booked against them, so
// they cannot be deleted, retyped, or nested.
type Category struct {
	Base
	UserID   string       `gorm:"type:uuid;not null;index" json:"user_id"`
	Emoji    string       `json:"emoji"`
	Name     string       `gorm:"not null" json:"name"`
	Type     CategoryType `gorm:"not null" json:"type"`
	ParentID *string      `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	System   bool         `gorm:"not null;default:false" json:"system"`

	Parent       *Category     `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children     []Category    `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:CategoryID" json:"transactions,omitempty"`
}
