package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
)

type budgetResponse struct {
	Month string  `json:"month"`
	Limit float64 `json:"limit"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"budgets": s.tracker.ListBudgets()})
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}
	limit, err := p.GetFloat("limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	month := p.Get("month")

	if err := s.tracker.SetBudget(r.Context(), month, limit); err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Budget set",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldMonth, month,
		applog.FieldAmount, limit)
	writeJSON(w, http.StatusCreated, budgetResponse{Month: core.NormalizeMonth(month).String(), Limit: limit})
}

func (s *Server) handleAdjustBudget(w http.ResponseWriter, r *http.Request) {
	month := mux.Vars(r)["month"]

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}
	limit, err := p.GetFloat("limit")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.tracker.AdjustBudget(r.Context(), month, limit); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetResponse{Month: core.NormalizeMonth(month).String(), Limit: limit})
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	month := mux.Vars(r)["month"]
	limit, ok := s.tracker.GetBudget(month)
	if !ok {
		NotFoundError("no budget set for " + month).Write(w)
		return
	}
	writeJSON(w, http.StatusOK, budgetResponse{Month: core.NormalizeMonth(month).String(), Limit: limit})
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.CheckBudget(mux.Vars(r)["month"]))
}

func (s *Server) handleClearBudgets(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.ClearBudgets(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
