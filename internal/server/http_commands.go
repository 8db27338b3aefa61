package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sleep-404/SmartDarshan/internal/events"
	"github.com/sleep-404/SmartDarshan/internal/metrics"
	"github.com/sleep-404/SmartDarshan/internal/model"
	"github.com/sleep-404/SmartDarshan/internal/store"
)

// handleAcknowledgeAlert handles POST /api/alerts/{id}/acknowledge.
// Acknowledging an already-acknowledged or resolved alert is a no-op that
// still returns the current alert state.
func (s *DarshanServer) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	alert, err := s.store.AcknowledgeAlert(id)
	if err != nil {
		metrics.CommandsTotal.WithLabelValues("acknowledge_alert", "error").Inc()
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "alert not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.CommandsTotal.WithLabelValues("acknowledge_alert", "ok").Inc()

	s.publish(r.Context(), events.TopicAlertAcked, events.AlertAcknowledged{Alert: alert})
	s.Broadcast()
	writeJSON(w, http.StatusOK, alert)
}

// gateControlRequest is the body of POST /api/gates/{id}/control.
type gateControlRequest struct {
	Status model.GateStatus `json:"status"`
}

// handleGateControl handles POST /api/gates/{id}/control. An unknown status
// value is rejected with no mutation; the tick-simulated fields (congestion,
// rates) are never touched here.
func (s *DarshanServer) handleGateControl(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req gateControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.CommandsTotal.WithLabelValues("set_gate_status", "error").Inc()
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	previous, err := s.store.Gate(id)
	if err != nil {
		metrics.CommandsTotal.WithLabelValues("set_gate_status", "error").Inc()
		writeError(w, http.StatusNotFound, "gate not found")
		return
	}

	gate, err := s.store.SetGateStatus(id, req.Status)
	if err != nil {
		metrics.CommandsTotal.WithLabelValues("set_gate_status", "error").Inc()
		var ve *model.ValidationError
		switch {
		case errors.As(err, &ve):
			writeError(w, http.StatusBadRequest, ve.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "gate not found")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	metrics.CommandsTotal.WithLabelValues("set_gate_status", "ok").Inc()

	s.publish(r.Context(), events.TopicGateChanged, events.GateStatusChanged{
		Gate:     gate,
		Previous: previous.Status,
	})
	s.Broadcast()
	writeJSON(w, http.StatusOK, gate)
}
