// Package events publishes state-change notifications to an optional NATS bus.
package events

import (
	"context"

	"github.com/sleep-404/SmartDarshan/internal/model"
)

// Event topic constants.
const (
	TopicTick          = "darshan.sim.tick"
	TopicAlertAcked    = "darshan.alert.acknowledged"
	TopicAlertRaised   = "darshan.alert.raised"
	TopicGateChanged   = "darshan.gate.status_changed"
	TopicStreamStarted = "darshan.stream.started"
	TopicStreamExited  = "darshan.stream.exited"
)

// Publisher is the outbound event interface. Publishing is best-effort;
// callers log failures and continue.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Event payload types.

type TickCompleted struct {
	Tick     uint64 `json:"tick"`
	Footfall int    `json:"footfall"`
}

type AlertAcknowledged struct {
	Alert model.Alert `json:"alert"`
}

type AlertRaised struct {
	Alert model.Alert `json:"alert"`
}

type GateStatusChanged struct {
	Gate     model.Gate       `json:"gate"`
	Previous model.GateStatus `json:"previous"`
}

type StreamLifecycle struct {
	State string `json:"state"`
	PID   int    `json:"pid,omitempty"`
}
