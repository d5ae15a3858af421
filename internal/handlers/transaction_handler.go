package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "dompet/internal/errors"
	"dompet/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the request payload for creating a transaction.
type CreateTransactionRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"required,max=500"`
	CategoryID  string          `json:"category_id" binding:"required,uuid"`
	WalletID    string          `json:"wallet_id" binding:"required,uuid"`
	Date        time.Time       `json:"date" binding:"required"`
}

// UpdateTransactionRequest represents the request payload for updating a transaction.
type UpdateTransactionRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description" binding:"omitempty,max=500"`
	CategoryID  *string          `json:"category_id" binding:"omitempty,uuid"`
	WalletID    *string          `json:"wallet_id" binding:"omitempty,uuid"`
	Date        *time.Time       `json:"date"`
}

// CreateTransaction handles the creation of a new transaction.
// @Summary     Create a transaction
// @Description Record a transaction; its type follows the category's type
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} Response "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category or wallet not found"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	transaction, err := h.transactionService.CreateTransaction(
		userID, req.Amount, req.Description, req.CategoryID, req.WalletID, req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Transaction created", gin.H{"transaction": transaction})
}

// GetTransactions returns the user's transactions grouped by day.
// @Summary     List transactions
// @Description Return transactions grouped by day, newest first, with totals
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       wallet_id query string false "Restrict to one wallet"
// @Param       start_date query string false "Start date (YYYY-MM-DD)"
// @Param       end_date query string false "End date (YYYY-MM-DD)"
// @Success     200 {object} Response "Grouped transactions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter := services.TransactionFilter{StartDate: start, EndDate: end}
	if walletID := c.Query("wallet_id"); walletID != "" {
		filter.WalletID = &walletID
	}

	list, err := h.transactionService.ListTransactions(userID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Transactions retrieved", list)
}

// GetTransaction returns one transaction.
// @Summary     Get a transaction
// @Description Return a single transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} Response "Transaction"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Transaction retrieved", gin.H{"transaction": transaction})
}

// UpdateTransaction handles partial transaction updates.
// @Summary     Update a transaction
// @Description Apply a partial update; touched wallet balances are recomputed
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to update"
// @Success     200 {object} Response "Updated transaction"
// @Failure     403 {object} ErrorResponse "Owned by another user"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /transactions/{id} [patch]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(userID, c.Param("id"), services.TransactionUpdateFields{
		Amount:      req.Amount,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		WalletID:    req.WalletID,
		Date:        req.Date,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Transaction updated", gin.H{"transaction": transaction})
}

// DeleteTransaction handles transaction deletion.
// @Summary     Delete a transaction
// @Description Delete a transaction and recompute its wallet's balance
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} Response "Transaction deleted"
// @Failure     403 {object} ErrorResponse "Owned by another user"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Transaction deleted", nil)
}
