package http

import (
	"net/http"

	"github.com/gorilla/mux"

	applog "spendlog/internal/log"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": s.tracker.ListCategories()})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}
	category := p.Get("category")

	if err := s.tracker.CreateCategory(r.Context(), category); err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Category created",
		applog.NewFields().WithOperation(applog.OpCreate).WithCategory(category).ToSlice()...)
	writeJSON(w, http.StatusCreated, map[string]any{"category": category, "members": []string{}})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]
	if err := s.tracker.DeleteCategory(r.Context(), category); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCategoryMembers(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]
	writeJSON(w, http.StatusOK, map[string]any{
		"category": category,
		"members":  s.tracker.CategoryMembers(category),
	})
}

func (s *Server) handleAssignCategory(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}
	name := p.Get("name")

	if err := s.tracker.AssignCategory(r.Context(), category, name); err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense assigned to category",
		applog.NewFields().WithOperation(applog.OpUpdate).WithCategory(category).ToSlice()...)
	writeJSON(w, http.StatusOK, map[string]any{
		"category": category,
		"members":  s.tracker.CategoryMembers(category),
	})
}

func (s *Server) handleCategoryExpenses(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]
	writeJSON(w, http.StatusOK, map[string]any{
		"category": category,
		"expenses": s.tracker.CategoryExpenses(category),
	})
}

func (s *Server) handleClearCategories(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.ClearCategories(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
