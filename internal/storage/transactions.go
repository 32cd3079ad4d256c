package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"budget-tracker/internal/models"
	"budget-tracker/internal/query"

	"github.com/shopspring/decimal"
)

const transactionColumns = "id, user_id, description, amount, transaction_type, category, date, created_at"

// CreateTransaction inserts a new transaction owned by userID.
func (db *DB) CreateTransaction(ctx context.Context, userID int64, f models.TransactionFields) (*models.Transaction, error) {
	t := &models.Transaction{UserID: userID, CreatedAt: db.now()}
	t.Apply(f)

	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO transactions (user_id, description, amount, transaction_type, category, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		userID, t.Description, t.Amount.StringFixed(2), string(t.Type), string(t.Category),
		t.Date.Format(models.DateLayout), t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

// GetTransaction retrieves a single transaction by ID regardless of owner.
// Ownership is checked by the caller.
func (db *DB) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// ListTransactions returns one page of userID's transactions matching p.
func (db *DB) ListTransactions(ctx context.Context, userID int64, p query.Params) ([]models.Transaction, error) {
	where, args := filterClause(userID, p.Filter)

	q := "SELECT " + transactionColumns + " FROM transactions WHERE " + where + " ORDER BY " + orderClause(p.Order)
	if p.Page.Size > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, p.Page.Size, p.Page.Offset())
	}

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

// CountTransactions returns how many of userID's transactions match f.
func (db *DB) CountTransactions(ctx context.Context, userID int64, f query.Filter) (int, error) {
	where, args := filterClause(userID, f)

	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions WHERE "+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}

// UpdateTransaction replaces the editable fields of t, in the database and in t.
func (db *DB) UpdateTransaction(ctx context.Context, t *models.Transaction, f models.TransactionFields) error {
	result, err := db.conn.ExecContext(ctx, `
		UPDATE transactions
		SET description = ?, amount = ?, transaction_type = ?, category = ?, date = ?
		WHERE id = ? AND user_id = ?`,
		f.Description, f.Amount.StringFixed(2), string(f.Type), string(f.Category),
		f.Date.Format(models.DateLayout), t.ID, t.UserID,
	)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	t.Apply(f)
	return nil
}

// DeleteTransaction removes t.
func (db *DB) DeleteTransaction(ctx context.Context, t *models.Transaction) error {
	result, err := db.conn.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND user_id = ?", t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", t.ID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Summarize totals all of userID's transactions. Sums are taken in whole
// cents so the result is exact.
func (db *DB) Summarize(ctx context.Context, userID int64) (models.Summary, error) {
	var incomeCents, expenseCents int64
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN transaction_type = 'income' THEN CAST(ROUND(amount * 100) AS INTEGER) ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN transaction_type = 'expense' THEN CAST(ROUND(amount * 100) AS INTEGER) ELSE 0 END), 0)
		FROM transactions
		WHERE user_id = ?`, userID,
	).Scan(&incomeCents, &expenseCents)
	if err != nil {
		return models.Summary{}, fmt.Errorf("summarize transactions: %w", err)
	}
	return models.NewSummary(decimal.New(incomeCents, -2), decimal.New(expenseCents, -2)), nil
}

// CategoryTotals sums userID's transactions matching f per type and
// category, largest total first.
func (db *DB) CategoryTotals(ctx context.Context, userID int64, f query.Filter) ([]models.CategoryTotal, error) {
	where, args := filterClause(userID, f)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT transaction_type, category, SUM(CAST(ROUND(amount * 100) AS INTEGER)) AS cents, COUNT(*)
		FROM transactions
		WHERE `+where+`
		GROUP BY transaction_type, category
		ORDER BY cents DESC, category ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	totals := []models.CategoryTotal{}
	for rows.Next() {
		var (
			ct       models.CategoryTotal
			txType   string
			category string
			cents    int64
		)
		if err := rows.Scan(&txType, &category, &cents, &ct.Count); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		ct.Type = models.TransactionType(txType)
		ct.Category = models.Category(category)
		ct.Total = decimal.New(cents, -2)
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

func filterClause(userID int64, f query.Filter) (string, []any) {
	conds := []string{"user_id = ?"}
	args := []any{userID}

	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.StartDate != nil {
		conds = append(conds, "date >= ?")
		args = append(args, f.StartDate.Format(models.DateLayout))
	}
	if f.EndDate != nil {
		conds = append(conds, "date <= ?")
		args = append(args, f.EndDate.Format(models.DateLayout))
	}
	return strings.Join(conds, " AND "), args
}

func orderClause(o query.Order) string {
	if o == query.OldestFirst {
		return "date ASC, created_at ASC, id ASC"
	}
	return "date DESC, created_at DESC, id DESC"
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (*models.Transaction, error) {
	var (
		t        models.Transaction
		amount   decimal.Decimal
		txType   string
		category string
		date     string
	)
	if err := s.Scan(&t.ID, &t.UserID, &t.Description, &amount, &txType, &category, &date, &t.CreatedAt); err != nil {
		return nil, err
	}

	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, err)
	}

	t.Amount = amount.Round(2)
	t.Type = models.TransactionType(txType)
	t.Category = models.Category(category)
	t.Date = d
	return &t, nil
}
