package server

import "net/http"

// handleGetState handles GET /api/state.
func (s *DarshanServer) handleGetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// handleGetZones handles GET /api/zones.
func (s *DarshanServer) handleGetZones(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot().Zones)
}

// handleGetGates handles GET /api/gates.
func (s *DarshanServer) handleGetGates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot().Gates)
}

// handleGetAlerts handles GET /api/alerts. Returns the active set: anything
// unacknowledged plus warnings, matching what the dashboard push carries.
func (s *DarshanServer) handleGetAlerts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot().ActiveAlerts())
}

// handleGetAlertHistory handles GET /api/alerts/history. Returns every
// alert regardless of status.
func (s *DarshanServer) handleGetAlertHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot().Alerts)
}

// handleGetSystemHealth handles GET /api/system-health.
func (s *DarshanServer) handleGetSystemHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot().SystemHealth)
}
