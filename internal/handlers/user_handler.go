package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "dompet/internal/errors"
	"dompet/internal/pagination"
	"dompet/internal/services"
)

// UserHandler handles profile and user administration requests.
type UserHandler struct {
	userService services.UserServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserServicer) *UserHandler {
	return &UserHandler{userService: userService}
}

// UpdateProfileRequest represents the request payload for a profile update.
type UpdateProfileRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=100"`
	Emoji *string `json:"emoji" binding:"omitempty,max=16"`
}

// UpdateSettingsRequest represents the request payload for a preferences update.
type UpdateSettingsRequest struct {
	CycleStartDate   *int    `json:"cycle_start_date" binding:"omitempty,min=1,max=31"`
	DarkMode         *bool   `json:"dark_mode"`
	SelectedWalletID *string `json:"selected_wallet_id" binding:"omitempty,uuid"`
}

// SettingsResponse is the preferences subset of the account.
type SettingsResponse struct {
	CycleStartDate   int     `json:"cycle_start_date"`
	DarkMode         bool    `json:"dark_mode"`
	SelectedWalletID *string `json:"selected_wallet_id"`
}

// GetProfile returns the authenticated user's profile.
// @Summary     Get profile
// @Description Return the authenticated user's account
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} Response "Profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /users/me [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Profile retrieved", gin.H{"user": user})
}

// UpdateProfile applies a partial update to the authenticated user's profile.
// @Summary     Update profile
// @Description Update the authenticated user's display name and emoji
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateProfileRequest true "Fields to update"
// @Success     200 {object} Response "Updated profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /users/me [patch]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	user, err := h.userService.UpdateProfile(userID, services.ProfileUpdateFields{
		Name:  req.Name,
		Emoji: req.Emoji,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Profile updated", gin.H{"user": user})
}

// GetSettings returns the authenticated user's preferences.
// @Summary     Get settings
// @Description Return the authenticated user's preferences
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} Response "Settings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /users/me/settings [get]
func (h *UserHandler) GetSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Settings retrieved", gin.H{"settings": SettingsResponse{
		CycleStartDate:   user.CycleStartDate,
		DarkMode:         user.DarkMode,
		SelectedWalletID: user.SelectedWalletID,
	}})
}

// UpdateSettings applies a partial update to the authenticated user's preferences.
// @Summary     Update settings
// @Description Update the budgeting cycle start day, dark mode, or selected wallet
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateSettingsRequest true "Fields to update"
// @Success     200 {object} Response "Updated settings"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Router      /users/me/settings [patch]
func (h *UserHandler) UpdateSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	user, err := h.userService.UpdateSettings(userID, services.SettingsUpdateFields{
		CycleStartDate:   req.CycleStartDate,
		DarkMode:         req.DarkMode,
		SelectedWalletID: req.SelectedWalletID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Settings updated", gin.H{"settings": SettingsResponse{
		CycleStartDate:   user.CycleStartDate,
		DarkMode:         user.DarkMode,
		SelectedWalletID: user.SelectedWalletID,
	}})
}

// DeleteUser removes an account and everything it owns. Admin only.
// @Summary     Delete a user
// @Description Delete an account with its wallets, categories, and transactions
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     200 {object} Response "User deleted"
// @Failure     403 {object} ErrorResponse "Admin role required"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /admin/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "User deleted", nil)
}

// ListUsers returns a page of all accounts. Admin only.
// @Summary     List users
// @Description Return a paginated list of all accounts
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       page_size query int false "Page size" default(25)
// @Success     200 {object} Response "Page of users"
// @Failure     403 {object} ErrorResponse "Admin role required"
// @Router      /admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	result, err := h.userService.ListUsers(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Users retrieved", result)
}
