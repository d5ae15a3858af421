package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db          *gorm.DB
	wallets     WalletServicer
	uniqueNames bool
}

// NewCategoryService creates a new CategoryServicer. When uniqueNames is set,
// category names are unique per user.
func NewCategoryService(db *gorm.DB, wallets WalletServicer, uniqueNames bool) CategoryServicer {
	return &categoryService{db: db, wallets: wallets, uniqueNames: uniqueNames}
}

// defaultCategories is the starter set every new user receives. The two
// system entries back opening-balance and balance-adjustment transactions.
var defaultCategories = []models.Category{
	{Emoji: "💰", Name: "Other Income", Type: models.CategoryTypeIncome, System: true},
	{Emoji: "🧾", Name: "Other Expense", Type: models.CategoryTypeExpense, System: true},
	{Emoji: "💵", Name: "Salary", Type: models.CategoryTypeIncome},
	{Emoji: "💸", Name: "Freelance", Type: models.CategoryTypeIncome},
	{Emoji: "🍔", Name: "Food & Drinks", Type: models.CategoryTypeExpense},
	{Emoji: "🚗", Name: "Transport", Type: models.CategoryTypeExpense},
	{Emoji: "🛒", Name: "Shopping", Type: models.CategoryTypeExpense},
	{Emoji: "🎫", Name: "Entertainment", Type: models.CategoryTypeExpense},
	{Emoji: "🔌", Name: "Bills & Utilities", Type: models.CategoryTypeExpense},
	{Emoji: "🏥", Name: "Health", Type: models.CategoryTypeExpense},
	{Emoji: "🎓", Name: "Education", Type: models.CategoryTypeExpense},
	{Emoji: "🏠", Name: "Rent", Type: models.CategoryTypeExpense},
}

// SeedDefaultCategories inserts the starter category set for a new user.
// Called inside the registration transaction.
func SeedDefaultCategories(tx *gorm.DB, userID string) error {
	for _, c := range defaultCategories {
		category := c
		category.UserID = userID
		if err := tx.Create(&category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}

// CreateCategory creates a new category for a user.
func (s *categoryService) CreateCategory(
	userID, emoji, name string,
	categoryType models.CategoryType,
	parentID *string,
) (*models.Category, error) {
	emoji = strings.TrimSpace(emoji)
	name = strings.TrimSpace(name)

	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "category name is required")
	}
	if categoryType != models.CategoryTypeIncome && categoryType != models.CategoryTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "category type must be income or expense")
	}

	if s.uniqueNames {
		var count int64
		if err := s.db.Model(&models.Category{}).
			Where("user_id = ? AND name = ?", userID, name).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.ErrDuplicateCategory
		}
	}

	if parentID != nil {
		if err := s.validateParent(userID, *parentID); err != nil {
			return nil, err
		}
	}

	category := &models.Category{
		UserID:   userID,
		Emoji:    emoji,
		Name:     name,
		Type:     categoryType,
		ParentID: parentID,
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// validateParent checks that parentID references a top-level category owned
// by the user. Nesting is one level deep, so a child can never be a parent.
func (s *categoryService) validateParent(userID, parentID string) error {
	var parent models.Category
	if err := s.db.Where("id = ? AND user_id = ?", parentID, userID).First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.WithMessage(apperrors.ErrCategoryNotFound, "parent category not found")
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if parent.ParentID != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidParentCategory, "categories can only be nested one level deep")
	}
	return nil
}

// GetCategoryTree returns the user's categories as top-level nodes with
// their children attached, newest first.
func (s *categoryService) GetCategoryTree(userID string) ([]CategoryNode, error) {
	var categories []models.Category
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	nodes := make([]CategoryNode, 0, len(categories))
	index := make(map[string]int)
	for _, c := range categories {
		if c.ParentID == nil {
			index[c.ID] = len(nodes)
			nodes = append(nodes, CategoryNode{Category: c, SubCategories: []models.Category{}})
		}
	}
	for _, c := range categories {
		if c.ParentID == nil {
			continue
		}
		if i, ok := index[*c.ParentID]; ok {
			nodes[i].SubCategories = append(nodes[i].SubCategories, c)
		}
	}

	return nodes, nil
}

// GetCategoryByID retrieves a category by ID for a specific user.
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates an existing category. System categories are frozen.
// When a category that has children becomes a child itself, its children are
// detached to top level first so nesting stays one level deep.
func (s *categoryService) UpdateCategory(
	userID, categoryID, emoji, name string,
	categoryType models.CategoryType,
	parentID *string,
) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}
	if category.System {
		return nil, apperrors.ErrCategoryIsSystem
	}

	emoji = strings.TrimSpace(emoji)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "category name is required")
	}
	if categoryType != models.CategoryTypeIncome && categoryType != models.CategoryTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "category type must be income or expense")
	}

	if parentID != nil {
		if *parentID == categoryID {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidParentCategory, "a category cannot be its own parent")
		}
		if err := s.validateParent(userID, *parentID); err != nil {
			return nil, err
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if parentID != nil {
			// Becoming a child: release any children to top level.
			if err := tx.Model(&models.Category{}).
				Where("parent_id = ? AND user_id = ?", categoryID, userID).
				Update("parent_id", nil).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		updates := map[string]interface{}{
			"emoji":     emoji,
			"name":      name,
			"type":      categoryType,
			"parent_id": parentID,
		}
		if err := tx.Model(category).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return category, nil
}

// DeleteCategory deletes a category and cascades to every transaction that
// references it, then recomputes the balance of each touched wallet. Children
// of a deleted parent are detached to top level. System categories cannot be
// deleted.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return err
	}
	if category.System {
		return apperrors.ErrCategoryIsSystem
	}

	var walletIDs []string
	if err := s.db.Model(&models.Transaction{}).
		Distinct("wallet_id").
		Where("category_id = ? AND user_id = ?", categoryID, userID).
		Pluck("wallet_id", &walletIDs).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Children first, then the parent record itself.
		if err := tx.Where("category_id = ? AND user_id = ?", categoryID, userID).
			Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.Category{}).
			Where("parent_id = ? AND user_id = ?", categoryID, userID).
			Update("parent_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, walletID := range walletIDs {
		if err := s.wallets.RecomputeBalance(walletID); err != nil {
			return err
		}
	}
	return nil
}
