package ledger

import (
	"strings"
	"time"
	"unicode/utf8"

	"budget-tracker/internal/models"

	"github.com/shopspring/decimal"
)

const maxDescriptionLength = 200

var (
	minAmount = decimal.New(1, -2)
	// Twelve integer digits keep exact cents within REAL and int64 sums.
	maxAmount = decimal.RequireFromString("999999999999.99")
)

// Input is the raw, user-supplied form of a transaction.
type Input struct {
	Description string
	Amount      string
	Type        string
	Category    string
	Date        string
}

// ParseInput validates in and converts it to transaction fields. Amounts are
// rounded half-up to two decimal places before the minimum is checked.
// Failures are reported together as a *models.ValidationError.
func ParseInput(in Input) (models.TransactionFields, error) {
	var (
		f  models.TransactionFields
		ve models.ValidationError
	)

	f.Description = strings.TrimSpace(in.Description)
	switch n := utf8.RuneCountInString(f.Description); {
	case n == 0:
		ve.Add("description", "description is required")
	case n > maxDescriptionLength:
		ve.Add("description", "description must be at most 200 characters")
	}

	if s := strings.TrimSpace(in.Amount); s == "" {
		ve.Add("amount", "amount is required")
	} else if amount, err := decimal.NewFromString(s); err != nil {
		ve.Add("amount", "amount must be a number")
	} else if amount = amount.Round(2); amount.LessThan(minAmount) {
		ve.Add("amount", "amount must be greater than 0")
	} else if amount.GreaterThan(maxAmount) {
		ve.Add("amount", "amount must be at most 999999999999.99")
	} else {
		f.Amount = amount
	}

	if t := models.TransactionType(strings.TrimSpace(in.Type)); t.Valid() {
		f.Type = t
	} else {
		ve.Add("transaction_type", "transaction type must be income or expense")
	}

	if c := models.Category(strings.TrimSpace(in.Category)); c.Valid() {
		f.Category = c
	} else {
		ve.Add("category", "category is not valid")
	}

	if s := strings.TrimSpace(in.Date); s == "" {
		ve.Add("date", "date is required")
	} else if d, err := time.Parse(models.DateLayout, s); err != nil {
		ve.Add("date", "date must be formatted as YYYY-MM-DD")
	} else {
		f.Date = d
	}

	if err := ve.Err(); err != nil {
		return models.TransactionFields{}, err
	}
	return f, nil
}
