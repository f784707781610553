package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/visibility-audit/internal/audit"
	"github.com/sells-group/visibility-audit/internal/model"
	"github.com/sells-group/visibility-audit/internal/monitoring"
	"github.com/sells-group/visibility-audit/internal/overlay"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the report API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		s := &server{
			pipeline:  env.Pipeline,
			collector: env.Collector,
			mapsKey:   cfg.Overlay.MapsKey,
			limiter:   newIPLimiter(cfg.Server.RatePerHour),
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           s.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// server holds the handler dependencies for the report API.
type server struct {
	pipeline  *audit.Pipeline
	collector *monitoring.Collector
	mapsKey   string
	limiter   *ipLimiter
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
	r.Get("/reports/{id}", s.handleGetReport)
	r.Get("/reports/{id}/overlay", s.handleOverlay)
	r.Get("/history", s.handleHistory)

	// Generation is the expensive path; it alone carries the per-IP
	// budget.
	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.middleware)
		}
		r.Post("/generate", s.handleGenerate)
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	lookback := monitoring.DefaultLookbackHours
	if v := r.URL.Query().Get("lookback_hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lookback = n
		}
	}

	snap, err := s.collector.Collect(r.Context(), lookback)
	if err != nil {
		zap.L().Error("metrics collection failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "metrics unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req audit.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if req.URL == "" && req.FallbackText == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "url or fallback_text is required")
		return
	}

	report, err := s.pipeline.Generate(r.Context(), req)
	if err != nil {
		s.collector.RecordGeneration(err, false)
		writeAuditError(w, err)
		return
	}
	s.collector.RecordGeneration(nil, report.Cached)
	writeJSON(w, http.StatusOK, generateResponse{
		Report:            report,
		KeywordCandidates: model.KeywordCandidates(report.Keyword, &report.Profile),
	})
}

// generateResponse decorates a report with alternative keywords the
// caller can re-run the audit with.
type generateResponse struct {
	*model.Report
	KeywordCandidates []string `json:"keyword_candidates"`
}

func (s *server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.pipeline.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAuditError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// overlayResponse bundles the marker description with the rendered
// static-map URL.
type overlayResponse struct {
	*overlay.Description
	StaticMapURL string `json:"static_map_url"`
}

func (s *server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	report, err := s.pipeline.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAuditError(w, err)
		return
	}

	d := overlay.Describe(report)
	writeJSON(w, http.StatusOK, overlayResponse{
		Description:  d,
		StaticMapURL: overlay.StaticMapURL(d, s.mapsKey),
	})
}

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = min(n, maxHistoryLimit)
		}
	}

	summaries, err := s.pipeline.History(r.Context(), limit)
	if err != nil {
		writeAuditError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": summaries})
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeAuditError maps a pipeline failure kind onto an HTTP status.
func writeAuditError(w http.ResponseWriter, err error) {
	kind := audit.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case audit.KindParseFailed:
		status = http.StatusUnprocessableEntity
	case audit.KindNotFound:
		status = http.StatusNotFound
	case audit.KindNarrativeFailed:
		status = http.StatusBadGateway
	case audit.KindCacheUnavailable:
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("kind", string(kind)), zap.Error(err))
	}
	writeError(w, status, string(kind), err.Error())
}
