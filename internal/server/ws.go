package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sleep-404/SmartDarshan/internal/hub"
)

// feedIdleInterval is how long a feed connection may stay silent before the
// server sends an application-level {action:"ping"}. A pong (or any other
// message) counts as activity; a missed pong is not itself a disconnect —
// dead peers are detected by send failure.
const feedIdleInterval = 30 * time.Second

// handleDashboardWS handles GET /ws, the dashboard-wide sync endpoint.
// Every session receives a full snapshot on connect and update pushes on
// each tick and command thereafter.
func (s *DarshanServer) handleDashboardWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("dashboard websocket upgrade failed", "err", err)
		return
	}

	sess := hub.NewSession(conn)
	go s.hub.WritePump(sess)
	s.hub.Register(sess, s.store.Snapshot())
	go s.hub.ReadPump(sess)
}

// handleFeedWS handles GET /ws/analytics/{feed_id}. Unknown feed ids are
// accepted and then closed with the not-found application code, matching
// how clients distinguish a bad feed from a transport failure.
func (s *DarshanServer) handleFeedWS(w http.ResponseWriter, r *http.Request) {
	feedID := r.PathValue("feed_id")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("feed websocket upgrade failed", "feed", feedID, "err", err)
		return
	}

	if !hub.KnownFeed(feedID) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(hub.CloseFeedNotFound, "feed '"+feedID+"' not found"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	sess := hub.NewSession(conn)
	go s.hub.WritePump(sess)
	s.feeds.Subscribe(feedID, sess)

	activity := make(chan struct{}, 1)
	stop := make(chan struct{})
	go s.feedKeepalive(sess, activity, stop)

	defer func() {
		close(stop)
		s.feeds.Unsubscribe(feedID, sess)
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case activity <- struct{}{}:
		default:
		}
		s.handleFeedCommand(feedID, sess, data)
	}
}

// feedKeepalive sends an application ping whenever the client has been
// silent for the idle interval.
func (s *DarshanServer) feedKeepalive(sess *hub.Session, activity <-chan struct{}, stop <-chan struct{}) {
	timer := time.NewTimer(feedIdleInterval)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-activity:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(feedIdleInterval)
		case <-timer.C:
			data, _ := json.Marshal(hub.ControlMessage{Action: "ping"})
			sess.SafeSend(data)
			timer.Reset(feedIdleInterval)
		}
	}
}

// handleFeedCommand processes a client message on a feed channel. Malformed
// or unrecognized payloads are ignored; the connection stays open.
func (s *DarshanServer) handleFeedCommand(feedID string, sess *hub.Session, data []byte) {
	var cmd hub.ControlMessage
	if err := json.Unmarshal(data, &cmd); err != nil {
		s.logger.Debug("unparseable feed command", "feed", feedID, "err", err)
		return
	}

	switch cmd.Action {
	case "ping":
		reply, _ := json.Marshal(hub.ControlMessage{Action: "pong"})
		sess.SafeSend(reply)
	case "pong":
		// Keepalive reply; the activity channel already noted it.
	case "set_zone_area":
		s.feeds.SetZoneArea(feedID, cmd.AreaSqm)
	case "set_counting_line":
		s.feeds.SetCountingLine(feedID, cmd.YPercentage)
	default:
		s.logger.Debug("unrecognized feed command", "feed", feedID, "action", cmd.Action)
	}
}

// wsStatusResponse is the body of GET /ws/status.
type wsStatusResponse struct {
	ActiveStreams     map[string]int `json:"active_streams"`
	DashboardSessions int            `json:"dashboard_sessions"`
	Timestamp         time.Time      `json:"timestamp"`
}

// handleWSStatus handles GET /ws/status.
func (s *DarshanServer) handleWSStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, wsStatusResponse{
		ActiveStreams:     s.feeds.Counts(),
		DashboardSessions: s.hub.Count(),
		Timestamp:         time.Now().UTC(),
	})
}
