// Package sim drives the periodic random-walk simulation against the store.
package sim

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/sleep-404/SmartDarshan/internal/config"
	"github.com/sleep-404/SmartDarshan/internal/events"
	"github.com/sleep-404/SmartDarshan/internal/idgen"
	"github.com/sleep-404/SmartDarshan/internal/metrics"
	"github.com/sleep-404/SmartDarshan/internal/model"
	"github.com/sleep-404/SmartDarshan/internal/store"
)

// Remaining per-tick clamp ranges not covered by config bounds.
const (
	queueMax = 2000
	waitMin  = 5
	waitMax  = 180
	rateMax  = 120
)

// Ticker perturbs the store on a fixed interval and hands each post-tick
// snapshot to the OnTick callback. All mutation happens inside one
// store.Mutate call, so a broadcast snapshot is never partial.
type Ticker struct {
	store     *store.Store
	bounds    config.Bounds
	interval  time.Duration
	statePath string
	publisher events.Publisher
	logger    *slog.Logger
	rng       *rand.Rand

	// OnTick receives the snapshot captured at the end of each tick.
	// Set before Start; called from the ticker goroutine.
	OnTick func(*model.State)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a ticker. A nil rng falls back to a time-seeded source.
func New(s *store.Store, bounds config.Bounds, interval time.Duration, statePath string, pub events.Publisher, logger *slog.Logger, rng *rand.Rand) *Ticker {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ticker{
		store:     s,
		bounds:    bounds,
		interval:  interval,
		statePath: statePath,
		publisher: pub,
		logger:    logger,
		rng:       rng,
	}
}

// Start begins the periodic simulation loop.
func (t *Ticker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.run(ctx)
	}()
}

// Stop cancels the schedule and waits for an in-flight tick to finish.
func (t *Ticker) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
}

func (t *Ticker) run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.TickOnce(ctx)
		}
	}
}

// TickOnce applies one full simulation step. Exported so tests can step the
// simulation deterministically without waiting on real time.
func (t *Ticker) TickOnce(ctx context.Context) *model.State {
	var raised []model.Alert

	snap := t.store.Mutate(func(st *model.State) {
		st.Tick++
		t.stepRealtime(st)
		t.stepZones(st)
		t.stepGates(st)
		t.stepHealth(st)
		raised = t.raiseThresholdAlerts(st)
	})

	metrics.TicksTotal.Inc()

	if err := t.store.Persist(t.statePath); err != nil {
		// In-memory state stays authoritative; persistence is best-effort.
		t.logger.Warn("state persistence failed", "path", t.statePath, "err", err)
	}

	for _, a := range raised {
		if err := t.publisher.Publish(ctx, events.TopicAlertRaised, events.AlertRaised{Alert: a}); err != nil {
			t.logger.Warn("failed to publish alert event", "alert_id", a.ID, "err", err)
		}
	}
	err := t.publisher.Publish(ctx, events.TopicTick, events.TickCompleted{
		Tick:     snap.Tick,
		Footfall: snap.Realtime.Footfall,
	})
	if err != nil {
		t.logger.Warn("failed to publish tick event", "tick", snap.Tick, "err", err)
	}

	if t.OnTick != nil {
		t.OnTick(snap)
	}
	return snap
}

func (t *Ticker) stepRealtime(st *model.State) {
	b := t.bounds
	delta := t.rng.Intn(b.FootfallDeltaHi-b.FootfallDeltaLo+1) + b.FootfallDeltaLo
	st.Realtime.Footfall = model.Clamp(st.Realtime.Footfall+delta, b.FootfallMin, b.FootfallMax)
	st.Realtime.QueueLength = model.Clamp(t.walk(st.Realtime.QueueLength, b.QueueDelta), 0, queueMax)
	st.Realtime.WaitTimeMin = model.Clamp(t.walk(st.Realtime.WaitTimeMin, 4), waitMin, waitMax)
}

func (t *Ticker) stepZones(st *model.State) {
	for i := range st.Zones {
		z := &st.Zones[i]
		z.Density = t.walk(z.Density, t.bounds.DensityDelta)
		z.Recompute()
	}
}

func (t *Ticker) stepGates(st *model.State) {
	b := t.bounds
	for i := range st.Gates {
		g := &st.Gates[i]
		g.EntryRate = model.Clamp(t.walk(g.EntryRate, b.RateDelta), 0, rateMax)
		if g.Type == model.GateEntryExit {
			g.ExitRate = model.Clamp(t.walk(g.ExitRate, b.RateDelta), 0, rateMax)
		}
		g.Congestion = model.Clamp(t.walk(g.Congestion, b.CongestionDelta), b.CongestionMin, b.CongestionMax)
	}
}

func (t *Ticker) stepHealth(st *model.State) {
	d := t.bounds.HealthDelta
	st.SystemHealth.VMS.CPU = model.Clamp(t.walk(st.SystemHealth.VMS.CPU, d), 0, 100)
	st.SystemHealth.VMS.Memory = model.Clamp(t.walk(st.SystemHealth.VMS.Memory, d), 0, 100)

	now := time.Now().UTC()
	if !now.After(st.SystemHealth.LastSync) {
		now = st.SystemHealth.LastSync.Add(time.Millisecond)
	}
	st.SystemHealth.LastSync = now
}

// raiseThresholdAlerts appends a critical alert for each zone that crossed
// into critical density without one already pending.
func (t *Ticker) raiseThresholdAlerts(st *model.State) []model.Alert {
	var raised []model.Alert
	for _, z := range st.Zones {
		if z.Status != model.ZoneCritical || hasPendingCritical(st.Alerts, z.ID) {
			continue
		}
		id, err := idgen.NewAlertID()
		if err != nil {
			t.logger.Warn("failed to generate alert id", "zone", z.ID, "err", err)
			continue
		}
		a := model.Alert{
			ID:        id,
			Severity:  model.SeverityCritical,
			Message:   "Crowd density critical in " + z.Name,
			Zone:      z.ID,
			Status:    model.AlertUnacknowledged,
			Timestamp: st.SystemHealth.LastSync,
		}
		st.Alerts = append(st.Alerts, a)
		raised = append(raised, a)
	}
	return raised
}

func hasPendingCritical(alerts []model.Alert, zoneID string) bool {
	for _, a := range alerts {
		if a.Zone == zoneID && a.Severity == model.SeverityCritical && a.Status == model.AlertUnacknowledged {
			return true
		}
	}
	return false
}

// walk moves v by a uniformly random signed delta of at most mag.
func (t *Ticker) walk(v, mag int) int {
	return v + t.rng.Intn(2*mag+1) - mag
}
