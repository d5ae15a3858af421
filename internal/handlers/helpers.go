package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "dompet/internal/errors"
	"dompet/internal/logger"
)

// Response is the uniform envelope every endpoint answers with.
type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	StatusCode int         `json:"status_code"`
	Data       interface{} `json:"data,omitempty"`
}

// ErrorResponse documents the envelope of a failed request.
type ErrorResponse struct {
	Success    bool   `json:"success" example:"false"`
	Message    string `json:"message" example:"Resource not found"`
	StatusCode int    `json:"status_code" example:"404"`
}

// respond writes a successful envelope.
func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success:    true,
		Message:    message,
		StatusCode: status,
		Data:       data,
	})
}

// respondWithError writes a failed envelope. AppErrors carry their own status
// and client-safe message; anything else is logged and collapsed to a generic
// internal error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, Response{
			Success:    false,
			Message:    appErr.Message,
			StatusCode: appErr.StatusCode,
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(http.StatusInternalServerError, Response{
		Success:    false,
		Message:    apperrors.ErrInternalServer.Message,
		StatusCode: http.StatusInternalServerError,
	})
}

// getUserID extracts the authenticated user ID from the Gin context.
func getUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get("userID")
	if !exists {
		return "", apperrors.ErrUnauthorized
	}
	return userID.(string), nil
}

// parseDateRange parses optional start_date/end_date query parameters in
// YYYY-MM-DD form. The end date is promoted to the last instant of its day so
// the range is inclusive.
func parseDateRange(c *gin.Context) (start, end *time.Time, err error) {
	if raw := c.Query("start_date"); raw != "" {
		t, parseErr := time.Parse("2006-01-02", raw)
		if parseErr != nil {
			return nil, nil, apperrors.WithMessage(apperrors.ErrValidation, "start_date must be YYYY-MM-DD")
		}
		start = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, parseErr := time.Parse("2006-01-02", raw)
		if parseErr != nil {
			return nil, nil, apperrors.WithMessage(apperrors.ErrValidation, "end_date must be YYYY-MM-DD")
		}
		t = t.Add(24*time.Hour - time.Nanosecond)
		end = &t
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, nil, apperrors.WithMessage(apperrors.ErrValidation, "start_date must not be after end_date")
	}
	return start, end, nil
}
