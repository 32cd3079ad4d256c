package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used for transaction dates everywhere.
const DateLayout = "2006-01-02"

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Category is one of a fixed set of transaction categories.
type Category string

const (
	CategorySalary        Category = "salary"
	CategoryFreelance     Category = "freelance"
	CategoryInvestment    Category = "investment"
	CategoryBusiness      Category = "business"
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryUtilities     Category = "utilities"
	CategoryEntertainment Category = "entertainment"
	CategoryHealthcare    Category = "healthcare"
	CategoryShopping      Category = "shopping"
	CategoryEducation     Category = "education"
	CategoryOther         Category = "other"
)

// CategoryDef pairs a category code with its display label.
type CategoryDef struct {
	Code  Category `json:"code"`
	Label string   `json:"label"`
}

var categories = []CategoryDef{
	{CategorySalary, "Salary"},
	{CategoryFreelance, "Freelance"},
	{CategoryInvestment, "Investment"},
	{CategoryBusiness, "Business"},
	{CategoryFood, "Food & Dining"},
	{CategoryTransport, "Transportation"},
	{CategoryUtilities, "Utilities"},
	{CategoryEntertainment, "Entertainment"},
	{CategoryHealthcare, "Healthcare"},
	{CategoryShopping, "Shopping"},
	{CategoryEducation, "Education"},
	{CategoryOther, "Other"},
}

// Categories returns the category definitions in display order.
func Categories() []CategoryDef {
	out := make([]CategoryDef, len(categories))
	copy(out, categories)
	return out
}

// Valid reports whether c is one of the known category codes.
func (c Category) Valid() bool {
	for _, def := range categories {
		if def.Code == c {
			return true
		}
	}
	return false
}

// Label returns the display label for c, or the raw code if unknown.
func (c Category) Label() string {
	for _, def := range categories {
		if def.Code == c {
			return def.Label
		}
	}
	return string(c)
}

// TransactionFields holds the user-editable part of a transaction.
type TransactionFields struct {
	Description string
	Amount      decimal.Decimal
	Type        TransactionType
	Category    Category
	Date        time.Time
}

// Transaction represents a single income or expense record.
type Transaction struct {
	ID          int64
	UserID      int64
	Description string
	Amount      decimal.Decimal
	Type        TransactionType
	Category    Category
	Date        time.Time
	CreatedAt   time.Time
}

// Apply replaces the editable fields of t.
func (t *Transaction) Apply(f TransactionFields) {
	t.Description = f.Description
	t.Amount = f.Amount
	t.Type = f.Type
	t.Category = f.Category
	t.Date = f.Date
}

// Summary aggregates a user's transactions.
type Summary struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Balance      decimal.Decimal
}

// NewSummary builds a Summary from the two totals.
func NewSummary(income, expense decimal.Decimal) Summary {
	return Summary{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income.Sub(expense),
	}
}

// CategoryTotal is the sum and count of one category's transactions of one type.
type CategoryTotal struct {
	Category Category
	Type     TransactionType
	Total    decimal.Decimal
	Count    int
}
