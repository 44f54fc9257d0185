package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scribeworks/meeting-audio-service/internal/config"
	"github.com/scribeworks/meeting-audio-service/internal/metrics"
	"github.com/scribeworks/meeting-audio-service/internal/session"
)

// HTTPServer provides HTTP API endpoints for session control and monitoring
type HTTPServer struct {
	server   *http.Server
	logger   *slog.Logger
	config   *config.Config
	registry *session.Registry
	metrics  *metrics.Metrics

	startTime time.Time
}

// NewHTTPServer creates a new HTTP API server
func NewHTTPServer(cfg config.HTTPConfig, appConfig *config.Config,
	registry *session.Registry, m *metrics.Metrics, logger *slog.Logger) *HTTPServer {

	h := &HTTPServer{
		logger:    logger,
		config:    appConfig,
		registry:  registry,
		metrics:   m,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))

	mux.HandleFunc("/sessions", h.withMetrics("/sessions", h.handleSessions))
	mux.HandleFunc("/sessions/", h.withMetrics("/sessions/{id}", h.handleSessionSubtree))

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: 200}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)
		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"service": map[string]interface{}{
			"name":    "meeting-audio-service",
			"version": "1.0.0",
		},
		"sessions": h.registry.Count(),
	}

	writeJSON(w, http.StatusOK, health)
}

// createSessionRequest is the POST /sessions body
type createSessionRequest struct {
	Title      string `json:"title"`
	CallHandle string `json:"call_handle,omitempty"`
}

// handleSessions implements GET and POST /sessions
func (h *HTTPServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		managers := h.registry.All()
		stats := make([]session.ManagerStats, 0, len(managers))
		for _, mgr := range managers {
			stats = append(stats, mgr.GetStats())
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"total_sessions": len(stats),
			"timestamp":      time.Now().UTC(),
			"sessions":       stats,
		})

	case http.MethodPost:
		var req createSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		mgr, err := h.registry.Create(session.Params{
			Title:      req.Title,
			CallHandle: req.CallHandle,
		})
		if err != nil {
			h.logger.Error("Failed to create session", slog.String("error", err.Error()))
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}

		if err := mgr.Start(r.Context()); err != nil {
			h.logger.Error("Failed to start session",
				slog.String("session_id", mgr.ID()),
				slog.String("error", err.Error()),
			)
			http.Error(w, "Failed to start session", http.StatusBadGateway)
			return
		}

		writeJSON(w, http.StatusCreated, mgr.Snapshot().Session)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleSessionSubtree routes /sessions/{id} and its sub-resources
func (h *HTTPServer) handleSessionSubtree(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path[len("/sessions/"):], "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Session ID required", http.StatusBadRequest)
		return
	}

	mgr, err := h.registry.Get(parts[0])
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, mgr.Snapshot().Session)
		return
	}

	switch parts[1] {
	case "pause":
		h.handleTransition(w, r, mgr.Pause)
	case "resume":
		h.handleTransition(w, r, mgr.Resume)
	case "end":
		h.handleEnd(w, r, mgr)
	case "transcript":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, mgr.Snapshot().Transcript)
	case "export":
		h.handleExport(w, r, mgr)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleTransition applies a pause or resume transition. Redundant calls
// are no-ops inside the manager, so a transition only fails on an internal
// error.
func (h *HTTPServer) handleTransition(w http.ResponseWriter, r *http.Request, transition func() error) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := transition(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleEnd ends a session and returns its final snapshot
func (h *HTTPServer) handleEnd(w http.ResponseWriter, r *http.Request, mgr *session.Manager) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, err := mgr.End()
	if err != nil {
		h.logger.Error("Session ended with teardown errors",
			slog.String("session_id", mgr.ID()),
			slog.String("error", err.Error()),
		)
	}

	writeJSON(w, http.StatusOK, snap)
}

// handleExport implements GET /sessions/{id}/export?format=txt|json
func (h *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request, mgr *session.Manager) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = session.FormatJSON
	}

	data, err := session.Export(mgr.Snapshot(), format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	contentType := "application/json"
	if format == session.FormatText {
		contentType = "text/plain; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleRoot provides API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	docs := map[string]interface{}{
		"service": "meeting-audio-service",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"GET /health":                   "Service health status",
			"GET /sessions":                 "List all sessions with statistics",
			"POST /sessions":                "Create and start a session",
			"GET /sessions/{id}":            "Session details",
			"POST /sessions/{id}/pause":     "Pause a session",
			"POST /sessions/{id}/resume":    "Resume a paused session",
			"POST /sessions/{id}/end":       "End a session and get the final snapshot",
			"GET /sessions/{id}/transcript": "Current transcript entries",
			"GET /sessions/{id}/export":     "Export session (format=txt|json)",
			"GET /metrics":                  "Prometheus metrics",
		},
	}

	writeJSON(w, http.StatusOK, docs)
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
