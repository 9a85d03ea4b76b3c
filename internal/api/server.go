package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/sheikh-saqib/kivoro-ledger/internal/ledger"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// Server exposes the settlement operations over JSON HTTP.
type Server struct {
	router   *mux.Router
	ledger   *ledger.Ledger
	gatherer prometheus.Gatherer
	logger   zerolog.Logger
}

// NewServer wires the routes. gatherer may be nil, in which case /metrics is not served.
func NewServer(l *ledger.Ledger, gatherer prometheus.Gatherer, logger zerolog.Logger) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		ledger:   l,
		gatherer: gatherer,
		logger:   logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	accounts := s.router.PathPrefix("/accounts/{account}").Subrouter()
	accounts.Use(validateAccount)
	accounts.HandleFunc("/balance", s.getBalance).Methods(http.MethodGet)
	accounts.HandleFunc("/transactions", s.listTransactions).Methods(http.MethodGet)
	accounts.HandleFunc("/orders/buy", s.buy).Methods(http.MethodPost)
	accounts.HandleFunc("/orders/sell", s.sell).Methods(http.MethodPost)
	accounts.HandleFunc("/topup", s.topUp).Methods(http.MethodPost)
	accounts.HandleFunc("/dividends", s.dividend).Methods(http.MethodPost)
	accounts.HandleFunc("/reset", s.reset).Methods(http.MethodPost)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer returns an *http.Server for addr with conservative timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()[:8]
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		requestID, _ := r.Context().Value(requestIDKey).(string)
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
