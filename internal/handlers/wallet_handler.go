package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "dompet/internal/errors"
	"dompet/internal/services"
)

// WalletHandler handles wallet-related requests.
type WalletHandler struct {
	walletService      services.WalletServicer
	transactionService services.TransactionServicer
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletService services.WalletServicer, transactionService services.TransactionServicer) *WalletHandler {
	return &WalletHandler{walletService: walletService, transactionService: transactionService}
}

// CreateWalletRequest represents the request payload for creating a wallet.
// Balance is the opening balance and may be negative.
type CreateWalletRequest struct {
	Name    string          `json:"name" binding:"required,min=1,max=100"`
	Emoji   string          `json:"emoji" binding:"max=16"`
	BgColor string          `json:"bg_color" binding:"omitempty,hex_color"`
	Balance decimal.Decimal `json:"balance"`
}

// UpdateWalletRequest represents the request payload for updating a wallet.
// A non-nil balance triggers adjustment-transaction synthesis.
type UpdateWalletRequest struct {
	Name    *string          `json:"name" binding:"omitempty,min=1,max=100"`
	Emoji   *string          `json:"emoji" binding:"omitempty,max=16"`
	BgColor *string          `json:"bg_color" binding:"omitempty,hex_color"`
	Balance *decimal.Decimal `json:"balance"`
}

// CreateWallet handles the creation of a new wallet.
// @Summary     Create a wallet
// @Description Create a wallet; a non-zero opening balance books an opening transaction
// @Tags        wallets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateWalletRequest true "Wallet details"
// @Success     201 {object} Response "Wallet created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /wallets [post]
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	wallet, err := h.walletService.CreateWallet(userID, req.Name, req.Emoji, req.BgColor, req.Balance)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Wallet created", gin.H{"wallet": wallet})
}

// GetWallets returns the user's wallets.
// @Summary     List wallets
// @Description Return all of the authenticated user's wallets
// @Tags        wallets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} Response "Wallets"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /wallets [get]
func (h *WalletHandler) GetWallets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	wallets, err := h.walletService.GetUserWallets(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Wallets retrieved", gin.H{"wallets": wallets})
}

// GetWallet returns one wallet.
// @Summary     Get a wallet
// @Description Return a single wallet by ID
// @Tags        wallets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Wallet ID"
// @Success     200 {object} Response "Wallet"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /wallets/{id} [get]
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	wallet, err := h.walletService.GetWalletByID(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Wallet retrieved", gin.H{"wallet": wallet})
}

// GetWalletTransactions returns the grouped transactions of one wallet.
// @Summary     List a wallet's transactions
// @Description Return the wallet's transactions grouped by day, with totals
// @Tags        wallets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Wallet ID"
// @Param       start_date query string false "Start date (YYYY-MM-DD)"
// @Param       end_date query string false "End date (YYYY-MM-DD)"
// @Success     200 {object} Response "Grouped transactions"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /wallets/{id}/transactions [get]
func (h *WalletHandler) GetWalletTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	// Resolve the wallet first so an unknown ID is a 404, not an empty list.
	wallet, err := h.walletService.GetWalletByID(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	list, err := h.transactionService.ListTransactions(userID, services.TransactionFilter{
		WalletID:  &wallet.ID,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Wallet transactions retrieved", gin.H{
		"wallet":       wallet,
		"transactions": list,
	})
}

// UpdateWallet handles wallet updates.
// @Summary     Update a wallet
// @Description Update display fields; a balance change books an adjustment transaction
// @Tags        wallets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Wallet ID"
// @Param       request body UpdateWalletRequest true "Fields to update"
// @Success     200 {object} Response "Updated wallet"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /wallets/{id} [patch]
func (h *WalletHandler) UpdateWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	wallet, err := h.walletService.UpdateWallet(userID, c.Param("id"), services.WalletUpdateFields{
		Name:    req.Name,
		Emoji:   req.Emoji,
		BgColor: req.BgColor,
		Balance: req.Balance,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Wallet updated", gin.H{"wallet": wallet})
}

// DeleteWallet handles wallet deletion.
// @Summary     Delete a wallet
// @Description Delete a wallet and every transaction in it
// @Tags        wallets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Wallet ID"
// @Success     200 {object} Response "Wallet deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /wallets/{id} [delete]
func (h *WalletHandler) DeleteWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.walletService.DeleteWallet(userID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Wallet deleted", nil)
}
