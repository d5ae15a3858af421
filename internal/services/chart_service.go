package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
)

// chartService produces read-only aggregations over a user's transactions.
type chartService struct {
	db *gorm.DB
}

// NewChartService creates a new ChartServicer.
func NewChartService(db *gorm.DB) ChartServicer {
	return &chartService{db: db}
}

func (s *chartService) rangeQuery(userID string, startDate, endDate *time.Time) *gorm.DB {
	query := s.db.Where("user_id = ?", userID)
	if startDate != nil {
		query = query.Where("date >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("date <= ?", *endDate)
	}
	return query
}

// StackedChart buckets the user's transactions by calendar month and returns
// per-month income/expense totals plus grand totals over the range. Months are
// keyed by their ISO form so clients sort and diff on a stable value.
func (s *chartService) StackedChart(userID string, startDate, endDate *time.Time) (*StackedChartData, error) {
	var transactions []models.Transaction
	if err := s.rangeQuery(userID, startDate, endDate).
		Order("date ASC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	data := &StackedChartData{
		ChartData:    []MonthlyTotals{},
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}

	index := make(map[string]int)
	for _, t := range transactions {
		key := t.Date.Format("2006-01")
		i, ok := index[key]
		if !ok {
			i = len(data.ChartData)
			index[key] = i
			data.ChartData = append(data.ChartData, MonthlyTotals{
				Month:        key,
				Label:        t.Date.Format("January 2006"),
				TotalIncome:  decimal.Zero,
				TotalExpense: decimal.Zero,
			})
		}

		switch t.Type {
		case models.TransactionTypeIncome:
			data.ChartData[i].TotalIncome = data.ChartData[i].TotalIncome.Add(t.Amount)
			data.TotalIncome = data.TotalIncome.Add(t.Amount)
		case models.TransactionTypeExpense:
			data.ChartData[i].TotalExpense = data.ChartData[i].TotalExpense.Add(t.Amount)
			data.TotalExpense = data.TotalExpense.Add(t.Amount)
		}
	}

	for i := range data.ChartData {
		m := &data.ChartData[i]
		m.RemainingBalance = m.TotalIncome.Sub(m.TotalExpense)
	}
	data.RemainingBalance = data.TotalIncome.Sub(data.TotalExpense)

	// Newest month first.
	sort.SliceStable(data.ChartData, func(a, b int) bool {
		return data.ChartData[a].Month > data.ChartData[b].Month
	})

	return data, nil
}

// PieChart groups the user's transactions by top-level category. Amounts
// booked against a child category roll up into its parent's group, while the
// contributing transactions keep the child's emoji and name so the breakdown
// stays visible. Groups are sorted by total, largest first.
func (s *chartService) PieChart(userID string, startDate, endDate *time.Time, categoryType *models.CategoryType) ([]PieChartGroup, error) {
	var categories []models.Category
	if err := s.db.Where("user_id = ?", userID).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	categoryByID := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		categoryByID[c.ID] = c
	}

	query := s.rangeQuery(userID, startDate, endDate)
	if categoryType != nil {
		query = query.Where("type = ?", *categoryType)
	}

	var transactions []models.Transaction
	if err := query.Order("date DESC").Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	groups := []PieChartGroup{}
	index := make(map[string]int)
	for _, t := range transactions {
		category, ok := categoryByID[t.CategoryID]
		if !ok {
			continue
		}

		// Roll up to the top-level ancestor. A dangling parent reference
		// falls back to the child so the amount is never dropped.
		top := category
		if category.ParentID != nil {
			if parent, ok := categoryByID[*category.ParentID]; ok {
				top = parent
			}
		}

		i, ok := index[top.ID]
		if !ok {
			i = len(groups)
			index[top.ID] = i
			groups = append(groups, PieChartGroup{
				CategoryID:        top.ID,
				Name:              top.Name,
				Emoji:             top.Emoji,
				Type:              top.Type,
				Total:             decimal.Zero,
				ListChildCategory: []PieChartEntry{},
			})
		}

		groups[i].Total = groups[i].Total.Add(t.Amount)
		groups[i].ListChildCategory = append(groups[i].ListChildCategory, PieChartEntry{
			TransactionID: t.ID,
			Emoji:         category.Emoji,
			Category:      category.Name,
			Description:   t.Description,
			Amount:        t.Amount,
			Date:          t.Date,
		})
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Total.Cmp(groups[b].Total) > 0
	})

	return groups, nil
}

// MonthlySummary returns per-day income and expense totals for one calendar
// month. Days without transactions are omitted.
func (s *chartService) MonthlySummary(userID string, year int, month time.Month) ([]DailySummary, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	var transactions []models.Transaction
	if err := s.db.Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
		Order("date ASC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summaries := []DailySummary{}
	index := make(map[string]int)
	for _, t := range transactions {
		day := t.Date.Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			i = len(summaries)
			index[day] = i
			summaries = append(summaries, DailySummary{
				Date:         day,
				TotalIncome:  decimal.Zero,
				TotalExpense: decimal.Zero,
			})
		}

		switch t.Type {
		case models.TransactionTypeIncome:
			summaries[i].TotalIncome = summaries[i].TotalIncome.Add(t.Amount)
		case models.TransactionTypeExpense:
			summaries[i].TotalExpense = summaries[i].TotalExpense.Add(t.Amount)
		}
	}

	return summaries, nil
}
