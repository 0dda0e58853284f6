package http

import (
	"bytes"
	"net/http"
	"strconv"

	applog "spendlog/internal/log"
)

const workbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.ClearAll(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).WarnContext(r.Context(), "All data cleared",
		applog.FieldOperation, applog.OpClear)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	report, err := s.tracker.ImportCSV(r.Context(), s.csvDir)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.ExportCSV(r.Context(), s.csvDir); err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "CSV export completed",
		applog.FieldOperation, applog.OpExport,
		"dir", s.csvDir)
	writeJSON(w, http.StatusOK, map[string]string{"dir": s.csvDir})
}

// handleExportWorkbook buffers the workbook so render errors are still
// reported as JSON.
func (s *Server) handleExportWorkbook(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.tracker.ExportWorkbook(r.Context(), &buf); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", workbookContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="spendlog.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.analytics.ExportReport(r.Context(), &buf); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="spendlog-report.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
