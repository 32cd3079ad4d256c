package handlers

import (
	"net/http"
	"strconv"
	"time"
)

// Statistics returns the category breakdown for one month, defaulting to
// the current month.
func (h *Handlers) Statistics(w http.ResponseWriter, r *http.Request) {
	yearStr := r.URL.Query().Get("year")
	monthStr := r.URL.Query().Get("month")

	now := time.Now()
	year := now.Year()
	month := now.Month()

	if yearStr != "" {
		if y, err := strconv.Atoi(yearStr); err == nil && y >= 1 && y <= 9999 {
			year = y
		}
	}
	if monthStr != "" {
		if m, err := strconv.Atoi(monthStr); err == nil && m >= 1 && m <= 12 {
			month = time.Month(m)
		}
	}

	id, _ := IdentityFromContext(r.Context())
	stats, err := h.ledger.Statistics(r.Context(), id, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, "ok", newStatisticsView(stats, now))
}
