package server

import (
	"errors"
	"net/http"

	"github.com/sleep-404/SmartDarshan/internal/stream"
)

// streamStatusResponse is the body of GET /api/stream/status.
type streamStatusResponse struct {
	State    stream.State `json:"state"`
	PID      int          `json:"pid,omitempty"`
	Playlist string       `json:"playlist,omitempty"`
}

// handleStreamStatus handles GET /api/stream/status.
func (s *DarshanServer) handleStreamStatus(w http.ResponseWriter, _ *http.Request) {
	if s.supervisor == nil {
		writeJSON(w, http.StatusOK, streamStatusResponse{State: stream.NotStarted})
		return
	}
	state, pid := s.supervisor.Status()
	resp := streamStatusResponse{State: state, PID: pid}
	if state == stream.Running {
		resp.Playlist = "/hls/stream.m3u8"
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStreamStart handles POST /api/stream/start. Starting an
// already-running stream succeeds without spawning a second child.
func (s *DarshanServer) handleStreamStart(w http.ResponseWriter, r *http.Request) {
	if s.supervisor == nil {
		writeError(w, http.StatusServiceUnavailable, "streaming is not configured")
		return
	}
	if err := s.supervisor.Start(r.Context()); err != nil {
		if errors.Is(err, stream.ErrSourceMissing) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.handleStreamStatus(w, r)
}

// handleStreamRestart handles POST /api/stream/restart, the only path back
// to Running after the child exits.
func (s *DarshanServer) handleStreamRestart(w http.ResponseWriter, r *http.Request) {
	if s.supervisor == nil {
		writeError(w, http.StatusServiceUnavailable, "streaming is not configured")
		return
	}
	if err := s.supervisor.Restart(r.Context()); err != nil {
		if errors.Is(err, stream.ErrSourceMissing) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.handleStreamStatus(w, r)
}
