package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "dompet/internal/errors"
	"dompet/internal/logger"
	"dompet/internal/mailer"
	"dompet/internal/models"
	"dompet/internal/pagination"
)

// userService handles user-related business logic.
type userService struct {
	db     *gorm.DB
	mailer mailer.Mailer
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, m mailer.Mailer) UserServicer {
	return &userService{db: db, mailer: m}
}

// randomToken returns a hex-encoded random token for email verification and
// password reset links.
func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Register creates an unverified account, seeds its default categories, and
// sends the verification email. Account creation and seeding share one
// transaction so a failed seed never leaves a category-less user behind.
func (s *userService) Register(username, name, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || name == "" || email == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "username, name, and email are required")
	}
	if len(password) < 8 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "password must be at least 8 characters")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateUsername
	}
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	token, err := randomToken()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Username:          username,
		Name:              name,
		Email:             email,
		Password:          string(hashed),
		Role:              models.RoleUser,
		VerificationToken: token,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return SeedDefaultCategories(tx, user.ID)
	})
	if err != nil {
		return nil, err
	}

	// Mail delivery is best-effort; the account exists either way and the
	// user can request a new link.
	if err := s.mailer.SendVerificationEmail(user.Email, user.Name, token); err != nil {
		logger.Get().Errorw("failed to send verification email", "error", err, "user_id", user.ID)
	}

	return user, nil
}

// VerifyEmail marks the account carrying the token as verified.
func (s *userService) VerifyEmail(token string) (*models.User, error) {
	if token == "" {
		return nil, apperrors.ErrInvalidToken
	}

	var user models.User
	if err := s.db.Where("verification_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := map[string]interface{}{
		"is_verified":        true,
		"verification_token": "",
	}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &user, nil
}

// ResendVerification replaces the account's verification token and mails the
// new link. Unlike registration, mail delivery failure is an error here since
// the mail is the whole point of the call.
func (s *userService) ResendVerification(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperrors.WithMessage(apperrors.ErrValidation, "email is required")
	}

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if user.IsVerified {
		return apperrors.WithMessage(apperrors.ErrValidation, "email is already verified")
	}

	token, err := randomToken()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(&user).Update("verification_token", token).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.mailer.SendVerificationEmail(user.Email, user.Name, token); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// AttemptLogin authenticates by username or email plus password. Unverified
// accounts are rejected after the password check so the error does not reveal
// whether the credentials were right.
func (s *userService) AttemptLogin(input, password string) (*models.User, error) {
	input = strings.TrimSpace(input)
	if input == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	var user models.User
	if err := s.db.Where("username = ? OR email = ?", input, strings.ToLower(input)).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, apperrors.ErrEmailNotVerified
	}

	now := time.Now()
	if err := s.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.LastLoginAt = &now

	return &user, nil
}

// LoginWithGoogle signs in a Google identity. An existing account with the
// same email is linked; otherwise a new pre-verified account is created with
// the default categories seeded.
func (s *userService) LoginWithGoogle(googleID, email, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if googleID == "" || email == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "google id and email are required")
	}

	var user models.User
	err := s.db.Where("google_id = ?", googleID).First(&user).Error
	if err == nil {
		return s.touchLogin(&user)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Link by email when the user registered with a password first.
	err = s.db.Where("email = ?", email).First(&user).Error
	if err == nil {
		updates := map[string]interface{}{
			"google_id":   googleID,
			"is_verified": true,
		}
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.touchLogin(&user)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user = models.User{
		Username:   s.usernameFromEmail(email),
		Name:       strings.TrimSpace(name),
		Email:      email,
		Role:       models.RoleUser,
		IsVerified: true,
		GoogleID:   googleID,
	}
	if user.Name == "" {
		user.Name = user.Username
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return SeedDefaultCategories(tx, user.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.touchLogin(&user)
}

// usernameFromEmail derives a unique username from the email's local part,
// appending a numeric suffix on collision.
func (s *userService) usernameFromEmail(email string) string {
	base := strings.SplitN(email, "@", 2)[0]
	candidate := base
	for i := 1; ; i++ {
		var count int64
		if err := s.db.Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil || count == 0 {
			return candidate
		}
		candidate = base + strconv.Itoa(i)
	}
}

func (s *userService) touchLogin(user *models.User) (*models.User, error) {
	now := time.Now()
	if err := s.db.Model(user).Update("last_login_at", now).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.LastLoginAt = &now
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// UpdateProfile applies a partial update to the user's display fields.
func (s *userService) UpdateProfile(userID string, fields ProfileUpdateFields) (*models.User, error) {
	user, err := s.GetUserByID(userID)
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

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return user, nil
}

// UpdateSettings applies a partial update to the user's preferences. A
// selected wallet must belong to the user.
func (s *userService) UpdateSettings(userID string, fields SettingsUpdateFields) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.CycleStartDate != nil {
		if *fields.CycleStartDate < 1 || *fields.CycleStartDate > 31 {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "cycle start date must be between 1 and 31")
		}
		updates["cycle_start_date"] = *fields.CycleStartDate
	}
	if fields.DarkMode != nil {
		updates["dark_mode"] = *fields.DarkMode
	}
	if fields.SelectedWalletID != nil {
		var wallet models.Wallet
		if err := s.db.Where("id = ? AND user_id = ?", *fields.SelectedWalletID, userID).First(&wallet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrWalletNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		updates["selected_wallet_id"] = wallet.ID
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return user, nil
}

// DeleteUser removes an account together with everything it owns. The
// children go first so a crash mid-way never leaves orphaned records.
func (s *userService) DeleteUser(userID string) error {
	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Wallet{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Category{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&user).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// ListUsers returns a page of all users, newest first. Admin only.
func (s *userService) ListUsers(page pagination.PageRequest) (*pagination.PageResponse[models.User], error) {
	page.Defaults()

	var total int64
	if err := s.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var users []models.User
	if err := s.db.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(users, page.Page, page.PageSize, total)
	return &resp, nil
}

// RequestPasswordReset issues a reset token valid for one hour and mails it.
// A missing account is not an error so the endpoint cannot be used to probe
// which emails are registered.
func (s *userService) RequestPasswordReset(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	token, err := randomToken()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	expires := time.Now().Add(time.Hour)
	updates := map[string]interface{}{
		"reset_password_token":   token,
		"reset_password_expires": expires,
	}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.mailer.SendPasswordResetEmail(user.Email, user.Name, token); err != nil {
		logger.Get().Errorw("failed to send password reset email", "error", err, "user_id", user.ID)
	}

	return nil
}

// ResetPassword sets a new password for the account carrying a live reset token.
func (s *userService) ResetPassword(token, newPassword string) error {
	if token == "" {
		return apperrors.ErrInvalidToken
	}
	if len(newPassword) < 8 {
		return apperrors.WithMessage(apperrors.ErrValidation, "password must be at least 8 characters")
	}

	var user models.User
	if err := s.db.Where("reset_password_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidToken
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if user.ResetPasswordExpires == nil || time.Now().After(*user.ResetPasswordExpires) {
		return apperrors.ErrInvalidToken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := map[string]interface{}{
		"password":               string(hashed),
		"reset_password_token":   "",
		"reset_password_expires": nil,
		"refresh_token_hash":     "",
	}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return nil
}

// StoreRefreshTokenHash records the hash of the user's current refresh token.
// Only the hash is stored; a leaked database row cannot be replayed.
func (s *userService) StoreRefreshTokenHash(userID, tokenHash string) error {
	result := s.db.Model(&models.User{}).Where("id = ?", userID).
		Update("refresh_token_hash", tokenHash)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// GetRefreshTokenHash returns the stored refresh token hash for comparison
// during rotation.
func (s *userService) GetRefreshTokenHash(userID string) (string, error) {
	var user models.User
	if err := s.db.Select("refresh_token_hash").Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrUserNotFound
		}
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user.RefreshTokenHash, nil
}
