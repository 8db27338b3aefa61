package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sleep-404/SmartDarshan/internal/hub"
	"github.com/sleep-404/SmartDarshan/internal/model"
	"github.com/sleep-404/SmartDarshan/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	st := store.New(nil)
	h := hub.New(nil)
	feeds := hub.NewFeedHub(10*time.Millisecond, nil)
	srv := New(st, h, feeds, nil, nil, t.TempDir(), nil)
	ts := httptest.NewServer(srv.NewHTTPHandler())
	t.Cleanup(ts.Close)
	return ts, st
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestGetStateSnapshot(t *testing.T) {
	ts, _ := newTestServer(t)

	var state model.State
	if code := getJSON(t, ts.URL+"/api/state", &state); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(state.Zones) != 4 {
		t.Errorf("zones = %d, want 4", len(state.Zones))
	}
	if len(state.Gates) != 3 {
		t.Errorf("gates = %d, want 3", len(state.Gates))
	}
	if state.Realtime.Footfall == 0 {
		t.Error("realtime footfall not populated")
	}
}

func TestGetActiveAlertsExcludesResolved(t *testing.T) {
	ts, _ := newTestServer(t)

	var alerts []model.Alert
	if code := getJSON(t, ts.URL+"/api/alerts", &alerts); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	for _, a := range alerts {
		if a.Status == model.AlertResolved {
			t.Errorf("resolved alert %s in active list", a.ID)
		}
	}

	var history []model.Alert
	if code := getJSON(t, ts.URL+"/api/alerts/history", &history); code != http.StatusOK {
		t.Fatalf("history status = %d", code)
	}
	if len(history) <= len(alerts) {
		t.Errorf("history (%d) should include resolved alerts beyond active (%d)", len(history), len(alerts))
	}
}

func TestAcknowledgeAlert(t *testing.T) {
	ts, st := newTestServer(t)

	var alert model.Alert
	code := postJSON(t, ts.URL+"/api/alerts/al-seed-1/acknowledge", nil, &alert)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if alert.Status != model.AlertAcknowledged {
		t.Errorf("status = %q, want acknowledged", alert.Status)
	}

	// Acknowledging again is a no-op returning the same state.
	var again model.Alert
	if code := postJSON(t, ts.URL+"/api/alerts/al-seed-1/acknowledge", nil, &again); code != http.StatusOK {
		t.Fatalf("repeat status = %d", code)
	}
	if again.Status != model.AlertAcknowledged {
		t.Errorf("repeat status = %q, want acknowledged", again.Status)
	}

	stored, err := st.Alert("al-seed-1")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != model.AlertAcknowledged {
		t.Errorf("stored status = %q", stored.Status)
	}
}

func TestAcknowledgeUnknownAlert(t *testing.T) {
	ts, _ := newTestServer(t)

	if code := postJSON(t, ts.URL+"/api/alerts/al-nope/acknowledge", nil, nil); code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

func TestGateControl(t *testing.T) {
	ts, st := newTestServer(t)

	var gate model.Gate
	code := postJSON(t, ts.URL+"/api/gates/north/control",
		map[string]string{"status": "restricted"}, &gate)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if gate.Status != model.GateRestricted {
		t.Errorf("status = %q, want restricted", gate.Status)
	}

	stored, err := st.Gate("north")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != model.GateRestricted {
		t.Errorf("stored status = %q", stored.Status)
	}
}

func TestGateControlRejectsUnknownStatus(t *testing.T) {
	ts, st := newTestServer(t)

	var body map[string]string
	code := postJSON(t, ts.URL+"/api/gates/north/control",
		map[string]string{"status": "ajar"}, &body)
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
	if body["error"] == "" {
		t.Error("error body missing")
	}

	stored, err := st.Gate("north")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != model.GateOpen {
		t.Errorf("rejected command mutated the gate: %q", stored.Status)
	}
}

func TestGateControlUnknownGate(t *testing.T) {
	ts, _ := newTestServer(t)

	code := postJSON(t, ts.URL+"/api/gates/west/control",
		map[string]string{"status": "closed"}, nil)
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

func TestStreamEndpointsWithoutSupervisor(t *testing.T) {
	ts, _ := newTestServer(t)

	var status map[string]any
	if code := getJSON(t, ts.URL+"/api/stream/status", &status); code != http.StatusOK {
		t.Fatalf("status code = %d", code)
	}
	if status["state"] != "not_started" {
		t.Errorf("state = %v, want not_started", status["state"])
	}

	if code := postJSON(t, ts.URL+"/api/stream/start", nil, nil); code != http.StatusServiceUnavailable {
		t.Errorf("start status = %d, want 503", code)
	}
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)

	var body map[string]string
	if code := getJSON(t, ts.URL+"/healthz", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func wsURL(ts *httptest.Server, path string) string {
	return strings.Replace(ts.URL, "http", "ws", 1) + path
}

func TestDashboardWSReceivesInitialAndCommandPush(t *testing.T) {
	ts, _ := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	// Raw envelope so the payload can be decoded for each message type.
	type envelope struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}

	var initial envelope
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatal(err)
	}
	if initial.Type != "initial" {
		t.Fatalf("first message type = %q, want initial", initial.Type)
	}

	// A command broadcasts the fresh state to connected dashboards.
	if code := postJSON(t, ts.URL+"/api/alerts/al-seed-1/acknowledge", nil, nil); code != http.StatusOK {
		t.Fatalf("ack status = %d", code)
	}
	var update envelope
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatal(err)
	}
	if update.Type != "update" {
		t.Fatalf("push type = %q, want update", update.Type)
	}
	var data hub.UpdateData
	if err := json.Unmarshal(update.Data, &data); err != nil {
		t.Fatal(err)
	}
	// The acknowledged critical is no longer active and drops out of the push.
	for _, a := range data.Alerts {
		if a.ID == "al-seed-1" {
			t.Errorf("acknowledged alert still pushed as active: %+v", a)
		}
	}
}

func TestFeedWSUnknownFeedClosedWithCode(t *testing.T) {
	ts, _ := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/analytics/no-such-feed"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, hub.CloseFeedNotFound) {
		t.Errorf("err = %v, want close code %d", err, hub.CloseFeedNotFound)
	}
}

func TestFeedWSStreamsFramesAndAnswersPing(t *testing.T) {
	ts, _ := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/analytics/density"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var frame hub.FeedMessage
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatal(err)
	}
	if frame.Metrics.Count <= 0 {
		t.Errorf("count = %d, want positive", frame.Metrics.Count)
	}
	if frame.Metrics.CongestionLevel == "" {
		t.Error("congestion level missing")
	}

	if err := conn.WriteJSON(hub.ControlMessage{Action: "ping"}); err != nil {
		t.Fatal(err)
	}
	// Frames and the pong interleave; scan a handful of messages.
	sawPong := false
	for i := 0; i < 20 && !sawPong; i++ {
		var raw map[string]any
		if err := conn.ReadJSON(&raw); err != nil {
			t.Fatal(err)
		}
		sawPong = raw["action"] == "pong"
	}
	if !sawPong {
		t.Error("ping was not answered with a pong")
	}
}

func TestWSStatusCountsSessions(t *testing.T) {
	ts, _ := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	feed, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/analytics/density"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer feed.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var status wsStatusResponse
		if code := getJSON(t, ts.URL+"/ws/status", &status); code != http.StatusOK {
			t.Fatalf("status code = %d", code)
		}
		if status.DashboardSessions == 1 && status.ActiveStreams["density"] == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("session counts never reached expected values")
}
