package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"budget-tracker/internal/ledger"
	"budget-tracker/internal/log"
	"budget-tracker/internal/query"
)

type transactionRequest struct {
	Description     string          `json:"description"`
	Amount          json.RawMessage `json:"amount"`
	TransactionType string          `json:"transaction_type"`
	Category        string          `json:"category"`
	Date            string          `json:"date"`
}

func (req transactionRequest) input() ledger.Input {
	return ledger.Input{
		Description: req.Description,
		Amount:      amountText(req.Amount),
		Type:        req.TransactionType,
		Category:    req.Category,
		Date:        req.Date,
	}
}

// Dashboard returns the summary and most recent transactions.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	d, err := h.ledger.Dashboard(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, "ok", DashboardView{
		Summary: newSummaryView(d.Summary),
		Recent:  newTransactionViews(d.Recent),
	})
}

// ListTransactions returns one filtered page of transactions.
func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	page, err := h.ledger.List(r.Context(), id, query.Parse(r.URL.Query(), h.pageSize))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, "ok", newListView(page))
}

// GetTransaction returns a single transaction.
func (h *Handlers) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	txID, ok := pathID(r)
	if !ok {
		writeError(w, r, ledger.ErrNotFound)
		return
	}

	t, err := h.ledger.Get(r.Context(), id, txID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, "ok", newTransactionView(t))
}

// CreateTransaction records a new transaction.
func (h *Handlers) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	t, err := h.ledger.Create(r.Context(), id, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).Info("transaction created",
		log.FieldOperation, log.OpCreate, log.FieldTransactionID, t.ID)
	writeJSON(w, r, http.StatusCreated, "transaction added successfully", newTransactionView(t))
}

// UpdateTransaction replaces a transaction's fields.
func (h *Handlers) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	txID, ok := pathID(r)
	if !ok {
		writeError(w, r, ledger.ErrNotFound)
		return
	}

	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	t, err := h.ledger.Update(r.Context(), id, txID, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).Info("transaction updated",
		log.FieldOperation, log.OpUpdate, log.FieldTransactionID, t.ID)
	writeJSON(w, r, http.StatusOK, "transaction updated successfully", newTransactionView(t))
}

// DeleteTransaction removes a transaction.
func (h *Handlers) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	txID, ok := pathID(r)
	if !ok {
		writeError(w, r, ledger.ErrNotFound)
		return
	}

	if err := h.ledger.Delete(r.Context(), id, txID); err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).Info("transaction deleted",
		log.FieldOperation, log.OpDelete, log.FieldTransactionID, txID)
	writeJSON(w, r, http.StatusOK, "transaction deleted successfully", nil)
}

// amountText accepts the amount as a JSON number or string. Anything else is
// passed through as-is for ParseInput to reject.
func amountText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}
