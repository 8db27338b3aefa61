// Package server exposes the REST and WebSocket surfaces over the store,
// hub, and stream supervisor.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/sleep-404/SmartDarshan/internal/events"
	"github.com/sleep-404/SmartDarshan/internal/hub"
	"github.com/sleep-404/SmartDarshan/internal/model"
	"github.com/sleep-404/SmartDarshan/internal/store"
	"github.com/sleep-404/SmartDarshan/internal/stream"
)

// DarshanServer ties the components together behind the HTTP surface.
type DarshanServer struct {
	store      *store.Store
	hub        *hub.Hub
	feeds      *hub.FeedHub
	supervisor *stream.Supervisor
	publisher  events.Publisher
	logger     *slog.Logger
	hlsDir     string
	upgrader   websocket.Upgrader
}

// New returns a server backed by the given components. supervisor may be
// nil when streaming is disabled.
func New(st *store.Store, h *hub.Hub, feeds *hub.FeedHub, sup *stream.Supervisor, pub events.Publisher, hlsDir string, logger *slog.Logger) *DarshanServer {
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DarshanServer{
		store:      st,
		hub:        h,
		feeds:      feeds,
		supervisor: sup,
		publisher:  pub,
		logger:     logger,
		hlsDir:     hlsDir,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Dashboard and API are served from separate dev origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Broadcast pushes the current state to all dashboard sessions. Commands
// call this so their effect is visible immediately rather than deferred to
// the next tick.
func (s *DarshanServer) Broadcast() {
	s.hub.Broadcast(s.store.Snapshot())
}

// publish emits an event best-effort; failures are logged, never raised.
func (s *DarshanServer) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "err", err)
	}
}

// OnTick is wired as the simulation ticker's callback.
func (s *DarshanServer) OnTick(snapshot *model.State) {
	s.hub.Broadcast(snapshot)
}
