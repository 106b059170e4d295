package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/soil-moisture-monitor/internal/adapter/export"
	"github.com/couchcryptid/soil-moisture-monitor/internal/dashboard"
	"github.com/couchcryptid/soil-moisture-monitor/internal/domain"
	"github.com/couchcryptid/soil-moisture-monitor/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refresher runs one fetch-and-process cycle per request.
type Refresher interface {
	sharedobs.ReadinessChecker
	Refresh(ctx context.Context, cutoff domain.Date) pipeline.Outcome
	DefaultCutoff() domain.Date
}

// Server exposes the dashboard, export downloads, and health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	refresher  Refresher
	labels     map[int]string
	logger     *slog.Logger
}

// NewServer creates the HTTP server. Every dashboard or export request
// triggers a fresh fetch; nothing is cached between requests.
func NewServer(addr string, refresher Refresher, labels map[int]string, logger *slog.Logger) *Server {
	s := &Server{
		refresher: refresher,
		labels:    labels,
		logger:    logger,
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handlePage).Methods(http.MethodGet)
	r.HandleFunc("/api/dashboard", s.handleDashboard).Methods(http.MethodGet)
	r.HandleFunc("/api/export.csv", s.handleExport(formatCSV)).Methods(http.MethodGet)
	r.HandleFunc("/api/export.xlsx", s.handleExport(formatXLSX)).Methods(http.MethodGet)
	r.HandleFunc("/api/report.pdf", s.handleExport(formatPDF)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", sharedobs.LivenessHandler()).Methods(http.MethodGet)
	r.HandleFunc("/readyz", sharedobs.ReadinessHandler(refresher)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	var h http.Handler = r
	h = handlers.CombinedLoggingHandler(accessLog{logger: logger}, h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
		handlers.PrintRecoveryStack(true),
	)(h)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// cutoff reads the since query parameter, defaulting to the configured lookback.
func (s *Server) cutoff(r *http.Request) (domain.Date, error) {
	since := r.URL.Query().Get("since")
	if since == "" {
		return s.refresher.DefaultCutoff(), nil
	}
	return domain.ParseDate(since)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	cutoff, err := s.cutoff(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	view := dashboard.BuildView(s.refresher.Refresh(r.Context(), cutoff), s.labels)

	var buf bytes.Buffer
	if err := dashboard.Render(&buf, view); err != nil {
		s.logger.Error("render dashboard", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes()) //nolint:errcheck // client gone
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	cutoff, err := s.cutoff(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	out := s.refresher.Refresh(r.Context(), cutoff)
	status := http.StatusOK
	if out.Failure != nil {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, dashboard.BuildView(out, s.labels))
}

type format struct {
	ext         string
	contentType string
	name        string
}

var (
	formatCSV  = format{ext: "csv", contentType: export.ContentTypeCSV, name: "export"}
	formatXLSX = format{ext: "xlsx", contentType: export.ContentTypeXLSX, name: "export"}
	formatPDF  = format{ext: "pdf", contentType: export.ContentTypePDF, name: "report"}
)

func (s *Server) handleExport(f format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cutoff, err := s.cutoff(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		out := s.refresher.Refresh(r.Context(), cutoff)
		if out.Failure != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": out.State(),
				"error":  out.Failure.Error(),
			})
			return
		}
		if out.Result.Status != domain.ResultOK {
			view := dashboard.BuildView(out, s.labels)
			writeJSON(w, http.StatusNotFound, map[string]string{
				"status":  out.State(),
				"message": view.Notices[0].Text,
			})
			return
		}

		data, err := s.render(f, out)
		if err != nil {
			s.logger.Error("render export", "format", f.ext, "refresh_id", out.RefreshID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "export failed"})
			return
		}
		filename := fmt.Sprintf("soil-moisture-%s-%s-since-%s.%s", f.name, out.ChannelID, cutoff.String(), f.ext)
		w.Header().Set("Content-Type", f.contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Write(data) //nolint:errcheck // client gone
	}
}

func (s *Server) render(f format, out pipeline.Outcome) ([]byte, error) {
	switch f.ext {
	case formatXLSX.ext:
		return export.BuildXLSX(out.Result, s.labels)
	case formatPDF.ext:
		return export.BuildReportPDF(export.Report{
			ChannelID:   out.ChannelID,
			Result:      out.Result,
			Labels:      s.labels,
			GeneratedAt: out.FetchedAt,
		})
	default:
		var buf bytes.Buffer
		err := export.WriteCSV(&buf, out.Result.Export)
		return buf.Bytes(), err
	}
}

// accessLog forwards combined-format access lines to the structured logger.
type accessLog struct {
	logger *slog.Logger
}

func (a accessLog) Write(p []byte) (int, error) {
	a.logger.Info("http request", "access", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
