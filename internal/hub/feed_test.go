package hub

import (
	"encoding/json"
	"testing"
	"time"
)

func recvFeed(t *testing.T, sess *Session) FeedMessage {
	t.Helper()
	select {
	case data := <-sess.send:
		var msg FeedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshaling feed message: %v", err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for feed message")
		return FeedMessage{}
	}
}

func TestKnownFeed(t *testing.T) {
	if !KnownFeed("density") {
		t.Error("density should be a known feed")
	}
	if KnownFeed("parking-lot") {
		t.Error("parking-lot should be unknown")
	}
}

func TestFeedProducerEmits(t *testing.T) {
	f := NewFeedHub(10*time.Millisecond, nil)
	sess := NewSession(nil)
	f.Subscribe("density", sess)
	defer f.Unsubscribe("density", sess)

	first := recvFeed(t, sess)
	second := recvFeed(t, sess)
	if second.FrameNumber <= first.FrameNumber {
		t.Errorf("frame numbers not advancing: %d then %d", first.FrameNumber, second.FrameNumber)
	}
	if first.Metrics.Count < 2 || first.Metrics.Count > 120 {
		t.Errorf("count %d outside synthesized range", first.Metrics.Count)
	}
	if first.Metrics.CongestionLevel == "" {
		t.Error("missing congestion level")
	}
	if len(first.Detections) == 0 {
		t.Error("expected detections")
	}
}

func TestFeedZoneAreaAffectsDensity(t *testing.T) {
	f := NewFeedHub(10*time.Millisecond, nil)
	sess := NewSession(nil)
	f.Subscribe("queue", sess)
	defer f.Unsubscribe("queue", sess)

	recvFeed(t, sess)
	f.SetZoneArea("queue", 1000.0)

	// Frames emitted before the calibration change may still be in flight.
	for i := 0; i < 10; i++ {
		msg := recvFeed(t, sess)
		if msg.Metrics.DensityPerSqm == float64(msg.Metrics.Count)/1000.0 {
			return
		}
	}
	t.Error("density never reflected the new zone area")
}

func TestFeedStopsWithLastSubscriber(t *testing.T) {
	f := NewFeedHub(10*time.Millisecond, nil)
	a := NewSession(nil)
	b := NewSession(nil)
	f.Subscribe("gate", a)
	f.Subscribe("gate", b)

	if got := f.Counts()["gate"]; got != 2 {
		t.Fatalf("subscribers = %d, want 2", got)
	}

	f.Unsubscribe("gate", a)
	if got := f.Counts()["gate"]; got != 1 {
		t.Fatalf("subscribers after one leave = %d, want 1", got)
	}

	f.Unsubscribe("gate", b)
	if _, active := f.Counts()["gate"]; active {
		t.Error("feed still active with zero subscribers")
	}

	// Unsubscribing again must be harmless.
	f.Unsubscribe("gate", b)
}

func TestCongestionLevels(t *testing.T) {
	tests := []struct {
		density float64
		want    string
	}{
		{0.5, "free"},
		{2.0, "moderate"},
		{3.0, "congested"},
		{5.0, "severe"},
	}
	for _, tt := range tests {
		if got := congestionLevel(tt.density); got != tt.want {
			t.Errorf("congestionLevel(%v) = %q, want %q", tt.density, got, tt.want)
		}
	}
}
