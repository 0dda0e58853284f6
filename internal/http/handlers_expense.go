package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
)

type expenseResponse struct {
	Month  string  `json:"month"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type monthTotalResponse struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"expenses": s.tracker.ListExpenses(),
		"total":    s.tracker.TotalSpent(),
	})
}

func (s *Server) handleListMonth(w http.ResponseWriter, r *http.Request) {
	month := mux.Vars(r)["month"]
	writeJSON(w, http.StatusOK, map[string]any{
		"month":    core.NormalizeMonth(month).String(),
		"expenses": s.tracker.ListMonth(month),
	})
}

func (s *Server) handleMonthlySum(w http.ResponseWriter, r *http.Request) {
	month := mux.Vars(r)["month"]
	writeJSON(w, http.StatusOK, monthTotalResponse{
		Month: core.NormalizeMonth(month).String(),
		Total: s.tracker.MonthlySum(month),
	})
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}

	amount, err := p.GetFloat("amount")
	if err != nil {
		writeError(w, r, err)
		return
	}
	month, name := p.Get("month"), p.Get("name")

	if err := s.tracker.AddExpense(r.Context(), month, name, amount); err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense added",
		applog.NewFields().WithOperation(applog.OpCreate).WithExpense(month, name).WithAmount(amount).ToSlice()...)
	writeJSON(w, http.StatusCreated, expenseResponse{
		Month:  core.NormalizeMonth(month).String(),
		Name:   name,
		Amount: amount,
	})
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	month, name := vars["month"], vars["name"]

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}
	amount, err := p.GetFloat("amount")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.tracker.UpdateExpense(r.Context(), month, name, amount); err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense updated",
		applog.NewFields().WithOperation(applog.OpUpdate).WithExpense(month, name).WithAmount(amount).ToSlice()...)
	writeJSON(w, http.StatusOK, expenseResponse{
		Month:  core.NormalizeMonth(month).String(),
		Name:   name,
		Amount: amount,
	})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	month, name := vars["month"], vars["name"]

	if err := s.tracker.DeleteExpense(r.Context(), month, name); err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted",
		applog.NewFields().WithOperation(applog.OpDelete).WithExpense(month, name).ToSlice()...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearExpenses(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.ClearExpenses(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
