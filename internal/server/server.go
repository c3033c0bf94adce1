// Package server exposes billing sync over HTTP for schedulers and monitoring.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hance08/keasync/internal/billing"
	"github.com/hance08/keasync/internal/service"
)

// BillingRunner is the part of the billing service the server drives.
type BillingRunner interface {
	Sync(ctx context.Context, limit int) (*billing.Report, error)
	Status() (*service.BillingStatus, error)
}

type Server struct {
	billing  BillingRunner
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

func New(runner BillingRunner, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{billing: runner, gatherer: gatherer, logger: logger}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/billing", func(r chi.Router) {
		r.Post("/sync", s.handleSync)
		r.Get("/status", s.handleStatus)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

type syncResponse struct {
	*billing.Report
	Message string `json:"message"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = n
	}

	report, err := s.billing.Sync(r.Context(), limit)
	if err != nil {
		status, code := statusForError(err)
		if report != nil {
			// Committed locally; only the acknowledgment failed.
			writeJSON(w, status, map[string]any{
				"error":  map[string]string{"code": code, "message": err.Error()},
				"report": report,
			})
			return
		}
		writeError(w, status, code, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, syncResponse{Report: report, Message: report.Summary()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.billing.Status()
	if err != nil {
		status, code := statusForError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// statusForError maps sync failures to HTTP. Anything the billing service
// caused is a bad gateway; local problems are internal errors.
func statusForError(err error) (int, string) {
	var (
		ackErr          *billing.AckError
		protocolErr     *billing.ProtocolError
		gatewayErr      *billing.GatewayError
		connectivityErr *billing.ConnectivityError
		storageErr      *billing.StorageError
	)
	switch {
	case errors.Is(err, service.ErrSyncInProgress):
		return http.StatusConflict, "sync_in_progress"
	case errors.As(err, &ackErr):
		return http.StatusBadGateway, "ack_failed"
	case errors.As(err, &storageErr):
		return http.StatusInternalServerError, "storage_error"
	case errors.As(err, &protocolErr):
		return http.StatusBadGateway, "protocol_error"
	case errors.As(err, &gatewayErr):
		return http.StatusBadGateway, "gateway_error"
	case errors.As(err, &connectivityErr):
		return http.StatusBadGateway, "billing_unreachable"
	case errors.Is(err, billing.ErrConfig):
		return http.StatusInternalServerError, "billing_not_configured"
	case errors.Is(err, billing.ErrNoBillingAccount):
		return http.StatusInternalServerError, "no_billing_account"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("billing trigger server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": msg,
		},
	})
}
