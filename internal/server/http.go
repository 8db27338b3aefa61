package server

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
func (s *DarshanServer) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/state", s.handleGetState)
	mux.HandleFunc("GET /api/zones", s.handleGetZones)
	mux.HandleFunc("GET /api/gates", s.handleGetGates)
	mux.HandleFunc("GET /api/alerts", s.handleGetAlerts)
	mux.HandleFunc("GET /api/alerts/history", s.handleGetAlertHistory)
	mux.HandleFunc("GET /api/system-health", s.handleGetSystemHealth)

	mux.HandleFunc("POST /api/alerts/{id}/acknowledge", s.handleAcknowledgeAlert)
	mux.HandleFunc("POST /api/gates/{id}/control", s.handleGateControl)

	mux.HandleFunc("GET /api/stream/status", s.handleStreamStatus)
	mux.HandleFunc("POST /api/stream/start", s.handleStreamStart)
	mux.HandleFunc("POST /api/stream/restart", s.handleStreamRestart)
	mux.Handle("GET /hls/", http.StripPrefix("/hls/", http.FileServer(http.Dir(s.hlsDir))))

	mux.HandleFunc("GET /ws", s.handleDashboardWS)
	mux.HandleFunc("GET /ws/analytics/{feed_id}", s.handleFeedWS)
	mux.HandleFunc("GET /ws/status", s.handleWSStatus)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return mux
}

// handleHealth handles GET /healthz.
func (s *DarshanServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
