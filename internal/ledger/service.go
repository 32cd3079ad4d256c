// Package ledger binds transaction operations to the requesting identity.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"budget-tracker/internal/models"
	"budget-tracker/internal/query"
	"budget-tracker/internal/storage"
)

// RecentCount is the number of transactions shown on the dashboard.
const RecentCount = 5

// ErrNotFound is returned for a transaction that does not exist or belongs to
// another user. The two cases are not distinguished.
var ErrNotFound = errors.New("transaction not found")

// Store is the persistence the ledger needs.
type Store interface {
	CreateTransaction(ctx context.Context, userID int64, f models.TransactionFields) (*models.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID int64, p query.Params) ([]models.Transaction, error)
	CountTransactions(ctx context.Context, userID int64, f query.Filter) (int, error)
	UpdateTransaction(ctx context.Context, t *models.Transaction, f models.TransactionFields) error
	DeleteTransaction(ctx context.Context, t *models.Transaction) error
	Summarize(ctx context.Context, userID int64) (models.Summary, error)
	CategoryTotals(ctx context.Context, userID int64, f query.Filter) ([]models.CategoryTotal, error)
}

var _ Store = (*storage.DB)(nil)

// Service runs transaction operations on behalf of an identity.
type Service struct {
	store Store
}

// NewService creates a ledger service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Page is one page of a transaction listing.
type Page struct {
	Transactions []models.Transaction
	Params       query.Params
	Total        int
	TotalPages   int
}

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool { return p.Params.Page.Number > 1 }

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool { return p.Params.Page.Number < p.TotalPages }

// Dashboard is the overview shown after login.
type Dashboard struct {
	Summary models.Summary
	Recent  []models.Transaction
}

// List returns one page of id's transactions.
func (s *Service) List(ctx context.Context, id models.Identity, p query.Params) (*Page, error) {
	total, err := s.store.CountTransactions(ctx, id.UserID, p.Filter)
	if err != nil {
		return nil, err
	}

	transactions, err := s.store.ListTransactions(ctx, id.UserID, p)
	if err != nil {
		return nil, err
	}

	return &Page{
		Transactions: transactions,
		Params:       p,
		Total:        total,
		TotalPages:   query.TotalPages(total, p.Page.Size),
	}, nil
}

// Get returns the transaction txID if id owns it.
func (s *Service) Get(ctx context.Context, id models.Identity, txID int64) (*models.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !id.Owns(t) {
		return nil, ErrNotFound
	}
	return t, nil
}

// Create validates in and records it as a transaction owned by id.
func (s *Service) Create(ctx context.Context, id models.Identity, in Input) (*models.Transaction, error) {
	f, err := ParseInput(in)
	if err != nil {
		return nil, err
	}
	t, err := s.store.CreateTransaction(ctx, id.UserID, f)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

// Update replaces the editable fields of transaction txID.
func (s *Service) Update(ctx context.Context, id models.Identity, txID int64, in Input) (*models.Transaction, error) {
	t, err := s.Get(ctx, id, txID)
	if err != nil {
		return nil, err
	}

	f, err := ParseInput(in)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateTransaction(ctx, t, f); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	return t, nil
}

// Delete removes transaction txID.
func (s *Service) Delete(ctx context.Context, id models.Identity, txID int64) error {
	t, err := s.Get(ctx, id, txID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTransaction(ctx, t); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// Dashboard returns id's totals and most recent transactions.
func (s *Service) Dashboard(ctx context.Context, id models.Identity) (*Dashboard, error) {
	summary, err := s.store.Summarize(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	recent, err := s.store.ListTransactions(ctx, id.UserID, query.Params{Page: query.Recent(RecentCount)})
	if err != nil {
		return nil, err
	}

	return &Dashboard{Summary: summary, Recent: recent}, nil
}
