package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	applog "spendlog/internal/log"
	"spendlog/internal/middleware/ratelimit"
	"spendlog/internal/middleware/security"
	"spendlog/internal/middleware/trace"
)

// Dependencies are the collaborators the API is built from.
type Dependencies struct {
	Tracker   Tracker
	Analytics Analytics
	// Ready reports whether backing stores are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
	// CSVDir is where import and export read and write the exchange files.
	CSVDir             string
	Logger             *applog.Logger
	RateLimitPerMinute int
}

// Server is the JSON API server.
type Server struct {
	http.Server

	tracker   Tracker
	analytics Analytics
	ready     func(ctx context.Context) error
	csvDir    string

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	detector := security.NewDetector()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		tracker:   deps.Tracker,
		analytics: deps.Analytics,
		ready:     deps.Ready,
		csvDir:    deps.CSVDir,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		detector:  detector,
		tracer:    trace.NewMiddleware(detector.ExtractClientIP),
	}

	r := mux.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(applog.Middleware(logger.WithComponent(applog.ComponentHTTP), trace.RequestID))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(detector.Middleware)
	r.Use(s.limiter.Middleware(detector.ExtractClientIP, handleRateLimited,
		http.MethodPost, http.MethodPut, http.MethodDelete))

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no route for " + r.URL.Path).Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed", r.Method+" "+r.URL.Path).Write(w)
	})

	s.routes(r)
	s.Handler = r
	return s
}

func (s *Server) routes(r *mux.Router) {
	r.HandleFunc("/healthz", handleHealth).Methods("GET")
	r.HandleFunc("/readyz", s.handleReady).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/expenses", s.handleListExpenses).Methods("GET")
	api.HandleFunc("/expenses", s.handleAddExpense).Methods("POST")
	api.HandleFunc("/expenses", s.handleClearExpenses).Methods("DELETE")
	api.HandleFunc("/expenses/{month}", s.handleListMonth).Methods("GET")
	api.HandleFunc("/expenses/{month}/total", s.handleMonthlySum).Methods("GET")
	api.HandleFunc("/expenses/{month}/{name}", s.handleUpdateExpense).Methods("PUT")
	api.HandleFunc("/expenses/{month}/{name}", s.handleDeleteExpense).Methods("DELETE")

	api.HandleFunc("/categories", s.handleListCategories).Methods("GET")
	api.HandleFunc("/categories", s.handleCreateCategory).Methods("POST")
	api.HandleFunc("/categories", s.handleClearCategories).Methods("DELETE")
	api.HandleFunc("/categories/{category}", s.handleDeleteCategory).Methods("DELETE")
	api.HandleFunc("/categories/{category}/members", s.handleCategoryMembers).Methods("GET")
	api.HandleFunc("/categories/{category}/members", s.handleAssignCategory).Methods("POST")
	api.HandleFunc("/categories/{category}/expenses", s.handleCategoryExpenses).Methods("GET")

	api.HandleFunc("/budgets", s.handleListBudgets).Methods("GET")
	api.HandleFunc("/budgets", s.handleSetBudget).Methods("POST")
	api.HandleFunc("/budgets", s.handleClearBudgets).Methods("DELETE")
	api.HandleFunc("/budgets/{month}", s.handleGetBudget).Methods("GET")
	api.HandleFunc("/budgets/{month}", s.handleAdjustBudget).Methods("PUT")
	api.HandleFunc("/budgets/{month}/status", s.handleBudgetStatus).Methods("GET")

	api.HandleFunc("/analytics/sync", s.handleSync).Methods("POST")
	api.HandleFunc("/analytics/trends", s.handleMonthlyTrends).Methods("GET")
	api.HandleFunc("/analytics/breakdown", s.handleCategoryBreakdown).Methods("GET")
	api.HandleFunc("/analytics/insights", s.handleInsights).Methods("GET")
	api.HandleFunc("/analytics/category-trends", s.handleCategoryTrends).Methods("GET")
	api.HandleFunc("/analytics/search", s.handleSearch).Methods("GET")
	api.HandleFunc("/analytics/summary", s.handleSummary).Methods("GET")

	api.HandleFunc("/data", s.handleClearAll).Methods("DELETE")
	api.HandleFunc("/data/import", s.handleImport).Methods("POST")
	api.HandleFunc("/data/export", s.handleExport).Methods("POST")
	api.HandleFunc("/data/export.xlsx", s.handleExportWorkbook).Methods("GET")
	api.HandleFunc("/data/report.pdf", s.handleExportReport).Methods("GET")
}

// Shutdown drains the listener and stops the rate limiter's cleanup loop.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

// Metrics returns request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

func handleRateLimited(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded", "try again later").Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "not ready", "").Write(w)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
