// Package hub fans simulation state out to connected dashboard sessions and
// runs the per-feed analytics streams.
package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sleep-404/SmartDarshan/internal/metrics"
	"github.com/sleep-404/SmartDarshan/internal/model"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024

	// Per-session outbound buffer. A session that falls this far behind is dropped.
	sendBufferSize = 64
)

// Message is the envelope pushed to dashboard sessions.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// UpdateData is the payload of a "type":"update" push.
type UpdateData struct {
	Realtime     model.Realtime     `json:"realtime"`
	Zones        []model.Zone       `json:"zones"`
	Gates        []model.Gate       `json:"gates"`
	Alerts       []model.Alert      `json:"alerts"`
	SystemHealth model.SystemHealth `json:"systemHealth"`
}

// Session is one connected client's channel handle. It is owned by the hub
// that registered it; nothing else closes it.
type Session struct {
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	closed    atomic.Bool
}

// NewSession wraps an upgraded connection.
func NewSession(conn *websocket.Conn) *Session {
	return &Session{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// SafeSend queues data for the session without panicking on a closed channel.
// Returns false if the session is closed or its buffer is full.
func (s *Session) SafeSend(data []byte) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			sent = false
		}
	}()

	if s.closed.Load() {
		return false
	}
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

// Close shuts the send channel exactly once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.send)
	})
}

// Hub maintains the set of connected dashboard sessions.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
	logger   *slog.Logger
}

// New creates an empty hub.
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		sessions: make(map[*Session]struct{}),
		logger:   logger,
	}
}

// Register adds a session and immediately sends it a full snapshot,
// independent of the tick cycle.
func (h *Hub) Register(sess *Session, snapshot *model.State) {
	h.mu.Lock()
	h.sessions[sess] = struct{}{}
	h.mu.Unlock()
	metrics.SessionsConnected.Inc()

	data, err := json.Marshal(Message{Type: "initial", Data: snapshot})
	if err != nil {
		h.logger.Warn("failed to marshal initial snapshot", "err", err)
		return
	}
	if !sess.SafeSend(data) {
		h.drop(sess)
	}
}

// Unregister removes a session. Idempotent; safe to call from any goroutine.
func (h *Hub) Unregister(sess *Session) {
	h.mu.Lock()
	_, known := h.sessions[sess]
	delete(h.sessions, sess)
	h.mu.Unlock()
	if known {
		metrics.SessionsConnected.Dec()
		sess.Close()
	}
}

// Count returns the number of registered sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Broadcast pushes an update built from the snapshot to every session.
// The payload is marshaled once; a failed or lagging session is dropped
// without affecting delivery to the rest. Zero sessions is a no-op.
func (h *Hub) Broadcast(snapshot *model.State) {
	payload := Message{Type: "update", Data: UpdateData{
		Realtime:     snapshot.Realtime,
		Zones:        snapshot.Zones,
		Gates:        snapshot.Gates,
		Alerts:       snapshot.ActiveAlerts(),
		SystemHealth: snapshot.SystemHealth,
	}}
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("failed to marshal update", "err", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions))
	for sess := range h.sessions {
		targets = append(targets, sess)
	}
	h.mu.RUnlock()

	for _, sess := range targets {
		if sess.SafeSend(data) {
			metrics.BroadcastsTotal.WithLabelValues("sent").Inc()
		} else {
			metrics.BroadcastsTotal.WithLabelValues("dropped").Inc()
			h.drop(sess)
		}
	}
}

func (h *Hub) drop(sess *Session) {
	h.logger.Warn("dropping unresponsive dashboard session")
	h.Unregister(sess)
}

// ReadPump consumes inbound frames until the connection dies, then
// unregisters the session. Dashboard clients only send pongs; any other
// payload is ignored.
func (h *Hub) ReadPump(sess *Session) {
	defer func() {
		h.Unregister(sess)
		_ = sess.conn.Close()
	}()

	sess.conn.SetReadLimit(maxMessageSize)
	_ = sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		_ = sess.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := sess.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("dashboard session read error", "err", err)
			}
			return
		}
		_ = sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// WritePump drains the session's send buffer onto the wire and keeps the
// connection alive with periodic pings.
func (h *Hub) WritePump(sess *Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = sess.conn.Close()
	}()

	for {
		select {
		case message, ok := <-sess.send:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sess.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sess.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
