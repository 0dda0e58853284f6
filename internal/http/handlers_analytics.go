package http

import (
	"net/http"
	"strings"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
)

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	n, err := s.analytics.Sync(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Analytics synced",
		applog.FieldOperation, applog.OpSync,
		applog.FieldRecords, n)
	writeJSON(w, http.StatusOK, map[string]int{"records": n})
}

func (s *Server) handleMonthlyTrends(w http.ResponseWriter, r *http.Request) {
	trends, err := s.analytics.MonthlyTrends(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trends)
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	breakdown, err := s.analytics.CategoryBreakdown(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.analytics.Insights(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insights)
}

// handleCategoryTrends returns per-month totals for one category when
// ?category= is given, otherwise the full category by month matrix.
func (s *Server) handleCategoryTrends(w http.ResponseWriter, r *http.Request) {
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		trends, err := s.analytics.TrendsForCategory(r.Context(), category)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, trends)
		return
	}

	trends, err := s.analytics.CategoryTrends(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trends)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.SearchFilter{
		Query:    sanitizeInput(q.Get("query")),
		Category: sanitizeInput(q.Get("category")),
		Month:    sanitizeInput(q.Get("month")),
	}

	var err error
	if filter.MinAmount, err = queryFloat(q, "min_amount"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.MaxAmount, err = queryFloat(q, "max_amount"); err != nil {
		writeError(w, r, err)
		return
	}

	records, err := s.analytics.Search(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.analytics.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
