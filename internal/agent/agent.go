// Package agent is the client-side subscription manager for one analytics
// feed: it dials the feed endpoint, answers keepalive pings, merges pushed
// metrics into a local view, and reconnects after abnormal closures.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sleep-404/SmartDarshan/internal/hub"
)

// ConnState is the agent's connection lifecycle. Widgets use this to decide
// whether to display live values or synthesized fallbacks.
type ConnState string

const (
	Disconnected ConnState = "disconnected"
	Connecting   ConnState = "connecting"
	Connected    ConnState = "connected"
)

// CloseIntentional is the application close code sent by Disconnect. A
// closure carrying this code never schedules a reconnect.
const CloseIntentional = 4001

// DefaultReconnectDelay is the fixed delay before the single reconnection
// attempt after an abnormal closure. Deliberately not exponential.
const DefaultReconnectDelay = 3 * time.Second

// View is the merged local state exposed to the consumer. Pushes update it
// field-by-field; fields absent from a message keep their previous value.
type View struct {
	Metrics     hub.FeedMetrics
	Detections  []hub.Detection
	FrameNumber uint64
	Advanced    *hub.AdvancedAnalytics
}

// incoming is the union of control and data messages on the feed channel.
// Pointer fields distinguish absent from zero.
type incoming struct {
	Action      string                 `json:"action"`
	Metrics     *hub.FeedMetrics       `json:"metrics"`
	Detections  []hub.Detection        `json:"detections"`
	FrameNumber *uint64                `json:"frame_number"`
	Advanced    *hub.AdvancedAnalytics `json:"advanced"`
}

// Agent manages one logical feed subscription.
type Agent struct {
	baseURL        string
	feedID         string
	reconnectDelay time.Duration
	logger         *slog.Logger
	dialer         *websocket.Dialer

	// OnUpdate, when set, is invoked with a copy of the view after each
	// merged data message. Set before Connect.
	OnUpdate func(View)

	mu              sync.Mutex
	writeMu         sync.Mutex
	state           ConnState
	conn            *websocket.Conn
	shouldReconnect bool
	reconnectTimer  *time.Timer
	lastErr         error
	view            View
}

// New creates an agent for ws(s)://{base}/ws/analytics/{feedID}.
func New(baseURL, feedID string, reconnectDelay time.Duration, logger *slog.Logger) *Agent {
	if reconnectDelay <= 0 {
		reconnectDelay = DefaultReconnectDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		baseURL:        baseURL,
		feedID:         feedID,
		reconnectDelay: reconnectDelay,
		logger:         logger,
		dialer:         websocket.DefaultDialer,
		state:          Disconnected,
	}
}

// URL returns the feed endpoint this agent dials.
func (a *Agent) URL() string {
	return fmt.Sprintf("%s/ws/analytics/%s", a.baseURL, a.feedID)
}

// Connect opens the feed channel. No-op when already Connected. It blocks
// until the channel opens or the dial fails; on success any previous error
// is cleared and the read loop starts.
func (a *Agent) Connect(ctx context.Context) error {
	a.mu.Lock()
	if a.state == Connected {
		a.mu.Unlock()
		return nil
	}
	a.state = Connecting
	a.shouldReconnect = true
	a.mu.Unlock()

	conn, _, err := a.dialer.DialContext(ctx, a.URL(), nil)

	a.mu.Lock()
	if err != nil {
		a.state = Disconnected
		a.lastErr = err
		reconnect := a.shouldReconnect
		a.mu.Unlock()
		if reconnect {
			a.scheduleReconnect()
		}
		return fmt.Errorf("connecting to feed %s: %w", a.feedID, err)
	}
	a.conn = conn
	a.state = Connected
	a.lastErr = nil
	a.mu.Unlock()

	a.logger.Info("feed connected", "feed", a.feedID)
	go a.readLoop(conn)
	return nil
}

// Disconnect closes the channel intentionally: the reconnect flag is
// cleared, any pending reconnect timer is cancelled, and the close frame
// carries CloseIntentional so the read loop does not re-schedule.
func (a *Agent) Disconnect() {
	a.mu.Lock()
	a.shouldReconnect = false
	if a.reconnectTimer != nil {
		a.reconnectTimer.Stop()
		a.reconnectTimer = nil
	}
	conn := a.conn
	a.conn = nil
	a.state = Disconnected
	a.mu.Unlock()

	if conn != nil {
		a.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(CloseIntentional, "client disconnect"),
			time.Now().Add(time.Second))
		a.writeMu.Unlock()
		_ = conn.Close()
	}
}

// State returns the current connection state.
func (a *Agent) State() ConnState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Err returns the most recent connection error, cleared on successful connect.
func (a *Agent) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// View returns a copy of the merged local state.
func (a *Agent) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	v := a.view
	v.Detections = append([]hub.Detection(nil), a.view.Detections...)
	return v
}

// SetZoneArea sends a calibration update. Silent no-op unless Connected.
func (a *Agent) SetZoneArea(areaSqm float64) {
	a.send(hub.ControlMessage{Action: "set_zone_area", AreaSqm: areaSqm})
}

// SetCountingLine moves the server-side counting line. Silent no-op unless
// Connected.
func (a *Agent) SetCountingLine(yPercentage float64) {
	a.send(hub.ControlMessage{Action: "set_counting_line", YPercentage: yPercentage})
}

func (a *Agent) send(msg hub.ControlMessage) {
	a.mu.Lock()
	conn := a.conn
	connected := a.state == Connected
	a.mu.Unlock()
	if !connected || conn == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop consumes the channel until it closes. A ping control message is
// answered with a pong before anything else is processed; data messages are
// merged into the view; unrecognized payloads are logged and ignored.
func (a *Agent) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			a.handleClosure(conn, err)
			return
		}

		var msg incoming
		if err := json.Unmarshal(data, &msg); err != nil {
			a.logger.Warn("unparseable feed message", "feed", a.feedID, "err", err)
			continue
		}

		if msg.Action == "ping" {
			a.replyPong(conn)
			continue
		}
		if msg.Action != "" {
			continue
		}
		a.merge(msg)
	}
}

func (a *Agent) replyPong(conn *websocket.Conn) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(hub.ControlMessage{Action: "pong"}); err != nil {
		a.logger.Warn("failed to answer keepalive", "feed", a.feedID, "err", err)
	}
}

// merge applies a partial update: only fields present in the message change.
func (a *Agent) merge(msg incoming) {
	a.mu.Lock()
	if msg.Metrics != nil {
		a.view.Metrics = *msg.Metrics
	}
	if msg.Detections != nil {
		a.view.Detections = msg.Detections
	}
	if msg.FrameNumber != nil {
		a.view.FrameNumber = *msg.FrameNumber
	}
	if msg.Advanced != nil {
		a.view.Advanced = msg.Advanced
	}
	view := a.view
	cb := a.OnUpdate
	a.mu.Unlock()

	if cb != nil {
		cb(view)
	}
}

// handleClosure decides whether the closure was intentional. Anything other
// than the agent's own Disconnect schedules exactly one reconnect attempt.
func (a *Agent) handleClosure(conn *websocket.Conn, err error) {
	a.mu.Lock()
	// Stale loop from a previous connection; the current one owns the state.
	if a.conn != nil && a.conn != conn {
		a.mu.Unlock()
		return
	}
	a.conn = nil
	a.state = Disconnected
	a.lastErr = err
	reconnect := a.shouldReconnect && !websocket.IsCloseError(err, CloseIntentional)
	a.mu.Unlock()

	_ = conn.Close()

	if reconnect {
		a.logger.Warn("feed connection lost, scheduling reconnect", "feed", a.feedID, "delay", a.reconnectDelay, "err", err)
		a.scheduleReconnect()
	}
}

// scheduleReconnect arms the single fixed-delay reconnect timer.
func (a *Agent) scheduleReconnect() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.shouldReconnect || a.reconnectTimer != nil {
		return
	}
	a.reconnectTimer = time.AfterFunc(a.reconnectDelay, func() {
		a.mu.Lock()
		a.reconnectTimer = nil
		should := a.shouldReconnect
		a.mu.Unlock()
		if !should {
			return
		}
		if err := a.Connect(context.Background()); err != nil {
			a.logger.Warn("reconnect attempt failed", "feed", a.feedID, "err", err)
		}
	})
}
