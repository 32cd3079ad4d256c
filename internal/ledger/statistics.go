package ledger

import (
	"context"
	"time"

	"budget-tracker/internal/models"
	"budget-tracker/internal/query"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CategoryShare is one category's part of a month's spending or earnings.
type CategoryShare struct {
	Category   models.Category
	Total      decimal.Decimal
	Count      int
	Percentage decimal.Decimal
}

// MonthlyStats breaks one calendar month down by category.
type MonthlyStats struct {
	Year     int
	Month    time.Month
	Summary  models.Summary
	Expenses []CategoryShare
	Income   []CategoryShare
}

// Prev returns the first day of the previous month.
func (m MonthlyStats) Prev() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
}

// Next returns the first day of the following month.
func (m MonthlyStats) Next() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

// Statistics returns id's category breakdown for the given month.
func (s *Service) Statistics(ctx context.Context, id models.Identity, year int, month time.Month) (*MonthlyStats, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	totals, err := s.store.CategoryTotals(ctx, id.UserID, query.Filter{StartDate: &start, EndDate: &end})
	if err != nil {
		return nil, err
	}

	var income, expense decimal.Decimal
	for _, ct := range totals {
		if ct.Type == models.Income {
			income = income.Add(ct.Total)
		} else {
			expense = expense.Add(ct.Total)
		}
	}

	stats := &MonthlyStats{
		Year:     start.Year(),
		Month:    start.Month(),
		Summary:  models.NewSummary(income, expense),
		Expenses: []CategoryShare{},
		Income:   []CategoryShare{},
	}
	for _, ct := range totals {
		if ct.Type == models.Income {
			stats.Income = append(stats.Income, share(ct, income))
		} else {
			stats.Expenses = append(stats.Expenses, share(ct, expense))
		}
	}
	return stats, nil
}

func share(ct models.CategoryTotal, of decimal.Decimal) CategoryShare {
	pct := decimal.Zero
	if of.IsPositive() {
		pct = ct.Total.Mul(hundred).Div(of).Round(1)
	}
	return CategoryShare{
		Category:   ct.Category,
		Total:      ct.Total,
		Count:      ct.Count,
		Percentage: pct,
	}
}
