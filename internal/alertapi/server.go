// Package alertapi exposes the inbound HTTP surface that upstream signal
// detectors post alerts to. A posted alert is fanned out to the topic's
// subscribers through the dispatcher.
package alertapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vpasslabs/signalbot/core/config"
	"github.com/vpasslabs/signalbot/core/logger"
	"github.com/vpasslabs/signalbot/internal/dispatch"
	"github.com/vpasslabs/signalbot/internal/topic"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	maxAlertBody    = 64 << 10 // alerts are short; anything bigger is garbage
	shutdownTimeout = 5 * time.Second
)

// Dispatcher fans an alert body out to a topic's subscribers.
type Dispatcher interface {
	Dispatch(ctx context.Context, t topic.Topic, body string) (dispatch.Report, error)
}

// alertRequest is the POST /alert payload. Topic is optional; an absent
// or empty topic broadcasts to every known subscriber.
type alertRequest struct {
	Message string `json:"message"`
	Topic   string `json:"topic,omitempty"`
}

type alertResponse struct {
	Status  string `json:"status"`
	SentTo  *int   `json:"sent_to,omitempty"`
	Message string `json:"message,omitempty"`
}

// Server is the alert ingestion HTTP server.
type Server struct {
	srv        *http.Server
	dispatcher Dispatcher
}

// New builds the server with its routes registered. The metrics endpoint
// serves the given registry so dispatch counters show up alongside the
// process collectors.
func New(cfg config.AlertAPIConfig, d Dispatcher, reg *prometheus.Registry) *Server {
	s := &Server{dispatcher: d}

	r := mux.NewRouter()
	r.HandleFunc("/alert", s.handleAlert).Methods(http.MethodPost)
	r.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)
	if reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	s.srv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Listen, cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "alertapi", "alertapi.listen", slog.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shCtx); err != nil {
		return fmt.Errorf("alertapi shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) handleAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req alertRequest
	body := http.MaxBytesReader(w, r.Body, maxAlertBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, alertResponse{Status: "error", Message: "invalid JSON body"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, alertResponse{Status: "error", Message: "message is required"})
		return
	}

	t := topic.Normalize(req.Topic)
	report, err := s.dispatcher.Dispatch(ctx, t, req.Message)
	if err != nil {
		logger.Error(ctx, "alertapi", "alertapi.dispatch_failed",
			slog.String("topic", string(t)),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, alertResponse{Status: "error", Message: "dispatch failed"})
		return
	}

	logger.Info(ctx, "alertapi", "alertapi.alert",
		slog.String("topic", string(t)),
		slog.Int("attempted", report.Attempted),
		slog.Int("delivered", report.Delivered()),
		slog.Int("failed", len(report.Failed)),
	)

	if report.Attempted == 0 {
		writeJSON(w, http.StatusOK, alertResponse{Status: "no_subscribers"})
		return
	}
	sent := report.Delivered()
	writeJSON(w, http.StatusOK, alertResponse{Status: "success", SentTo: &sent})
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
