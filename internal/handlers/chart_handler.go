package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
	"dompet/internal/services"
)

// ChartHandler handles reporting requests.
type ChartHandler struct {
	chartService services.ChartServicer
}

// NewChartHandler creates a new ChartHandler.
func NewChartHandler(chartService services.ChartServicer) *ChartHandler {
	return &ChartHandler{chartService: chartService}
}

// StackedChart returns per-month income/expense totals.
// @Summary     Stacked chart
// @Description Monthly income and expense totals plus grand totals over the range
// @Tags        charts
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Start date (YYYY-MM-DD)"
// @Param       end_date query string false "End date (YYYY-MM-DD)"
// @Success     200 {object} Response "Monthly totals"
// @Failure     400 {object} ErrorResponse "Bad date range"
// @Router      /charts/stacked [get]
func (h *ChartHandler) StackedChart(c *gin.Context) {
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

	data, err := h.chartService.StackedChart(userID, start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Stacked chart retrieved", data)
}

// PieChart returns totals grouped by top-level category.
// @Summary     Pie chart
// @Description Totals per top-level category with contributing transactions
// @Tags        charts
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Start date (YYYY-MM-DD)"
// @Param       end_date query string false "End date (YYYY-MM-DD)"
// @Param       type query string false "Filter by type" Enums(income, expense, all)
// @Success     200 {object} Response "Category groups"
// @Failure     400 {object} ErrorResponse "Bad parameters"
// @Router      /charts/pie [get]
func (h *ChartHandler) PieChart(c *gin.Context) {
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

	var categoryType *models.CategoryType
	switch raw := c.DefaultQuery("type", "all"); raw {
	case "all":
	case "income", "expense":
		t := models.CategoryType(raw)
		categoryType = &t
	default:
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, "type must be income, expense, or all"))
		return
	}

	groups, err := h.chartService.PieChart(userID, start, end, categoryType)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Pie chart retrieved", gin.H{"groups": groups})
}

// MonthlySummary returns per-day totals for one calendar month.
// @Summary     Monthly summary
// @Description Per-day income and expense totals for the given month
// @Tags        charts
// @Produce     json
// @Security    BearerAuth
// @Param       year query int true "Year"
// @Param       month query int true "Month (1-12)"
// @Success     200 {object} Response "Daily totals"
// @Failure     400 {object} ErrorResponse "Bad year or month"
// @Router      /charts/monthly [get]
func (h *ChartHandler) MonthlySummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 1970 || year > 9999 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, "year must be a four-digit year"))
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, "month must be between 1 and 12"))
		return
	}

	days, err := h.chartService.MonthlySummary(userID, year, time.Month(month))
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, "Monthly summary retrieved", gin.H{"days": days})
}
