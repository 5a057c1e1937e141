// Package http exposes the budget engine over a small JSON API. All user
// input validation happens here, at the edge; the engine underneath
// assumes well-formed data.
package http

import (
	"net/http"
	"time"

	"bilancio/internal/identity"
	applog "bilancio/internal/log"
	"bilancio/internal/session"

	"github.com/gorilla/mux"
)

type server struct {
	coord    *session.Coordinator
	provider identity.Provider
	logger   *applog.Logger
}

// NewServer wires the API routes and returns a configured http.Server.
func NewServer(addr string, coord *session.Coordinator, provider identity.Provider, logger *applog.Logger) *http.Server {
	s := &server{
		coord:    coord,
		provider: provider,
		logger:   logger.WithComponent("http"),
	}

	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/session", s.handleSignIn).Methods(http.MethodPost)
	api.HandleFunc("/session", s.handleSession).Methods(http.MethodGet)
	api.HandleFunc("/session", s.handleSignOut).Methods(http.MethodDelete)

	api.HandleFunc("/store", s.handleStore).Methods(http.MethodGet)

	api.HandleFunc("/months/{key}", s.handleGetMonth).Methods(http.MethodGet)
	api.HandleFunc("/months/{key}/budget", s.handleSetBudget).Methods(http.MethodPut)
	api.HandleFunc("/months/{key}/days/{day}/summary", s.handleDaySummary).Methods(http.MethodGet)
	api.HandleFunc("/months/{key}/days/{day}/expenses", s.handleAddExpense).Methods(http.MethodPost)
	api.HandleFunc("/months/{key}/days/{day}/expenses/{index}", s.handleUpdateExpense).Methods(http.MethodPut)
	api.HandleFunc("/months/{key}/days/{day}/expenses/{index}", s.handleDeleteExpense).Methods(http.MethodDelete)
	api.HandleFunc("/months/{key}/subscriptions", s.handleAddSubscription).Methods(http.MethodPost)
	api.HandleFunc("/months/{key}/subscriptions/{index}", s.handleUpdateSubscription).Methods(http.MethodPut)
	api.HandleFunc("/months/{key}/subscriptions/{index}", s.handleDeleteSubscription).Methods(http.MethodDelete)
	api.HandleFunc("/months/{key}/subscriptions/{index}/paid", s.handleToggleSubscriptionPaid).Methods(http.MethodPost)

	api.HandleFunc("/summary/years", s.handleYearSummaries).Methods(http.MethodGet)
	api.HandleFunc("/summary/months/{key}", s.handleMonthSummary).Methods(http.MethodGet)
	api.HandleFunc("/summary/months/{key}/categories", s.handleCategoryBreakdown).Methods(http.MethodGet)
	api.HandleFunc("/summary/months/{key}/daily-average", s.handleDailyAverage).Methods(http.MethodGet)

	return &http.Server{
		Addr:    addr,
		Handler: r,
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.InfoContext(r.Context(), "Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
