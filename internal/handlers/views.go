package handlers

import (
	"time"

	"budget-tracker/internal/ledger"
	"budget-tracker/internal/models"
)

// TransactionView is the JSON form of a transaction. Amounts are two-decimal strings.
type TransactionView struct {
	ID              int64                  `json:"id"`
	Description     string                 `json:"description"`
	Amount          string                 `json:"amount"`
	TransactionType models.TransactionType `json:"transaction_type"`
	Category        models.Category        `json:"category"`
	CategoryLabel   string                 `json:"category_label"`
	Date            string                 `json:"date"`
	CreatedAt       time.Time              `json:"created_at"`
}

func newTransactionView(t *models.Transaction) TransactionView {
	return TransactionView{
		ID:              t.ID,
		Description:     t.Description,
		Amount:          t.Amount.StringFixed(2),
		TransactionType: t.Type,
		Category:        t.Category,
		CategoryLabel:   t.Category.Label(),
		Date:            t.Date.Format(models.DateLayout),
		CreatedAt:       t.CreatedAt,
	}
}

func newTransactionViews(ts []models.Transaction) []TransactionView {
	views := make([]TransactionView, 0, len(ts))
	for i := range ts {
		views = append(views, newTransactionView(&ts[i]))
	}
	return views
}

// SummaryView is the JSON form of a summary.
type SummaryView struct {
	TotalIncome  string `json:"total_income"`
	TotalExpense string `json:"total_expense"`
	Balance      string `json:"balance"`
}

func newSummaryView(s models.Summary) SummaryView {
	return SummaryView{
		TotalIncome:  s.TotalIncome.StringFixed(2),
		TotalExpense: s.TotalExpense.StringFixed(2),
		Balance:      s.Balance.StringFixed(2),
	}
}

// DashboardView is the dashboard payload.
type DashboardView struct {
	Summary SummaryView       `json:"summary"`
	Recent  []TransactionView `json:"recent_transactions"`
}

// FilterView echoes the filters that were applied, after dropping invalid ones.
type FilterView struct {
	Category  string `json:"category,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Order     string `json:"order"`
}

// ListView is one page of the transaction list.
type ListView struct {
	Transactions []TransactionView `json:"transactions"`
	Page         int               `json:"page"`
	PageSize     int               `json:"page_size"`
	Total        int               `json:"total"`
	TotalPages   int               `json:"total_pages"`
	HasPrev      bool              `json:"has_prev"`
	HasNext      bool              `json:"has_next"`
	Filters      FilterView        `json:"filters"`
}

func newListView(p *ledger.Page) ListView {
	values := p.Params.Values()
	return ListView{
		Transactions: newTransactionViews(p.Transactions),
		Page:         p.Params.Page.Number,
		PageSize:     p.Params.Page.Size,
		Total:        p.Total,
		TotalPages:   p.TotalPages,
		HasPrev:      p.HasPrev(),
		HasNext:      p.HasNext(),
		Filters: FilterView{
			Category:  values.Get("category"),
			StartDate: values.Get("start_date"),
			EndDate:   values.Get("end_date"),
			Order:     p.Params.Order.String(),
		},
	}
}

// CategoryShareView is one row of the statistics breakdown.
type CategoryShareView struct {
	Category   models.Category `json:"category"`
	Label      string          `json:"label"`
	Total      string          `json:"total"`
	Count      int             `json:"count"`
	Percentage string          `json:"percentage"`
}

// MonthRef identifies a calendar month.
type MonthRef struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// StatisticsView is the monthly statistics payload.
type StatisticsView struct {
	Year           int                 `json:"year"`
	Month          int                 `json:"month"`
	MonthName      string              `json:"month_name"`
	Summary        SummaryView         `json:"summary"`
	Expenses       []CategoryShareView `json:"expenses"`
	Income         []CategoryShareView `json:"income"`
	Prev           MonthRef            `json:"prev"`
	Next           MonthRef            `json:"next"`
	IsCurrentMonth bool                `json:"is_current_month"`
}

func newShareViews(shares []ledger.CategoryShare) []CategoryShareView {
	views := make([]CategoryShareView, 0, len(shares))
	for _, s := range shares {
		views = append(views, CategoryShareView{
			Category:   s.Category,
			Label:      s.Category.Label(),
			Total:      s.Total.StringFixed(2),
			Count:      s.Count,
			Percentage: s.Percentage.StringFixed(1),
		})
	}
	return views
}

func newStatisticsView(s *ledger.MonthlyStats, now time.Time) StatisticsView {
	prev, next := s.Prev(), s.Next()
	return StatisticsView{
		Year:           s.Year,
		Month:          int(s.Month),
		MonthName:      s.Month.String(),
		Summary:        newSummaryView(s.Summary),
		Expenses:       newShareViews(s.Expenses),
		Income:         newShareViews(s.Income),
		Prev:           MonthRef{Year: prev.Year(), Month: int(prev.Month())},
		Next:           MonthRef{Year: next.Year(), Month: int(next.Month())},
		IsCurrentMonth: s.Year == now.Year() && s.Month == now.Month(),
	}
}
