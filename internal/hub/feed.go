package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/sleep-404/SmartDarshan/internal/metrics"
)

// CloseFeedNotFound is sent when a client subscribes to an unknown feed id.
const CloseFeedNotFound = 4004

// Feeds recognized by the analytics endpoint, one per camera channel.
var Feeds = []string{
	"density", "queue", "gate", "flow",
	"safety", "accessibility", "dwell", "anomaly",
}

// KnownFeed reports whether id names a configured analytics feed.
func KnownFeed(id string) bool {
	for _, f := range Feeds {
		if f == id {
			return true
		}
	}
	return false
}

// FeedMetrics is the per-frame aggregate block of a feed message.
type FeedMetrics struct {
	Count           int     `json:"count"`
	DensityPerSqm   float64 `json:"density_per_sqm"`
	AvgVelocity     float64 `json:"avg_velocity"`
	CongestionLevel string  `json:"congestion_level"`
}

// Detection is one tracked person in a frame.
type Detection struct {
	TrackID    int        `json:"track_id"`
	BBox       [4]float64 `json:"bbox"`
	Confidence float64    `json:"confidence"`
}

// AdvancedAnalytics is the optional tier-3 block attached to some frames.
type AdvancedAnalytics struct {
	DominantFlow     string `json:"dominantFlow"`
	CounterFlowCount int    `json:"counterFlowCount"`
	CounterFlow      bool   `json:"counterFlowDetected"`
	AnomalyCount     int    `json:"anomalyCount"`
}

// FeedMessage is one data push on an analytics feed.
type FeedMessage struct {
	Metrics     FeedMetrics        `json:"metrics"`
	Detections  []Detection        `json:"detections"`
	FrameNumber uint64             `json:"frame_number"`
	Advanced    *AdvancedAnalytics `json:"advanced,omitempty"`
}

// ControlMessage is the bidirectional action envelope on a feed channel.
type ControlMessage struct {
	Action      string  `json:"action"`
	AreaSqm     float64 `json:"area_sqm,omitempty"`
	YPercentage float64 `json:"y_percentage,omitempty"`
}

// feedState holds one feed's subscribers and generator parameters.
// The generator goroutine runs only while subscribers exist.
type feedState struct {
	sessions map[*Session]struct{}
	cancel   context.CancelFunc

	frame       uint64
	count       int
	zoneAreaSqm float64
	lineY       float64
}

// FeedHub runs a synthesized metrics producer per subscribed feed. The
// producer stands in for the vision pipeline: same wire format, mock values.
type FeedHub struct {
	mu       sync.Mutex
	feeds    map[string]*feedState
	interval time.Duration
	logger   *slog.Logger
	rng      *rand.Rand
}

// NewFeedHub creates a feed hub emitting at the given interval.
func NewFeedHub(interval time.Duration, logger *slog.Logger) *FeedHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedHub{
		feeds:    make(map[string]*feedState),
		interval: interval,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Subscribe attaches a session to a feed, starting its producer if this is
// the first subscriber.
func (f *FeedHub) Subscribe(feed string, sess *Session) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, ok := f.feeds[feed]
	if !ok {
		st = &feedState{
			sessions:    make(map[*Session]struct{}),
			count:       10 + f.rng.Intn(40),
			zoneAreaSqm: 100.0,
			lineY:       50.0,
		}
		ctx, cancel := context.WithCancel(context.Background())
		st.cancel = cancel
		f.feeds[feed] = st
		go f.produce(ctx, feed)
		f.logger.Info("feed producer started", "feed", feed)
	}
	st.sessions[sess] = struct{}{}
	metrics.FeedConnections.WithLabelValues(feed).Inc()
}

// Unsubscribe detaches a session, stopping the producer when the last
// subscriber leaves. Idempotent.
func (f *FeedHub) Unsubscribe(feed string, sess *Session) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, ok := f.feeds[feed]
	if !ok {
		return
	}
	if _, known := st.sessions[sess]; !known {
		return
	}
	delete(st.sessions, sess)
	metrics.FeedConnections.WithLabelValues(feed).Dec()
	sess.Close()

	if len(st.sessions) == 0 {
		st.cancel()
		delete(f.feeds, feed)
		f.logger.Info("feed producer stopped", "feed", feed)
	}
}

// SetZoneArea updates the calibration area used for density computation.
func (f *FeedHub) SetZoneArea(feed string, areaSqm float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.feeds[feed]; ok && areaSqm > 0 {
		st.zoneAreaSqm = areaSqm
	}
}

// SetCountingLine moves the virtual counting line (percentage of frame height).
func (f *FeedHub) SetCountingLine(feed string, yPercentage float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.feeds[feed]; ok && yPercentage >= 0 && yPercentage <= 100 {
		st.lineY = yPercentage
	}
}

// Counts returns the number of subscribers per active feed.
func (f *FeedHub) Counts() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int, len(f.feeds))
	for feed, st := range f.feeds {
		out[feed] = len(st.sessions)
	}
	return out
}

func (f *FeedHub) produce(ctx context.Context, feed string) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.emit(feed)
		}
	}
}

// emit builds one synthesized frame and fans it out. Sessions whose buffers
// are full simply miss the frame; the next one follows shortly.
func (f *FeedHub) emit(feed string) {
	f.mu.Lock()
	st, ok := f.feeds[feed]
	if !ok {
		f.mu.Unlock()
		return
	}
	st.frame++
	st.count = clampInt(st.count+f.rng.Intn(7)-3, 2, 120)

	msg := FeedMessage{
		FrameNumber: st.frame,
		Metrics: FeedMetrics{
			Count:         st.count,
			DensityPerSqm: float64(st.count) / st.zoneAreaSqm,
			AvgVelocity:   0.2 + f.rng.Float64()*1.2,
		},
	}
	msg.Metrics.CongestionLevel = congestionLevel(msg.Metrics.DensityPerSqm)

	n := st.count
	if n > 8 {
		n = 8
	}
	msg.Detections = make([]Detection, n)
	for i := range msg.Detections {
		x := f.rng.Float64() * 0.9
		y := f.rng.Float64() * 0.9
		msg.Detections[i] = Detection{
			TrackID:    i + 1,
			BBox:       [4]float64{x, y, x + 0.05, y + 0.1},
			Confidence: 0.4 + f.rng.Float64()*0.6,
		}
	}

	if st.frame%5 == 0 {
		msg.Advanced = &AdvancedAnalytics{
			DominantFlow:     "north",
			CounterFlowCount: f.rng.Intn(3),
			AnomalyCount:     f.rng.Intn(2),
		}
		msg.Advanced.CounterFlow = msg.Advanced.CounterFlowCount > 0
	}

	targets := make([]*Session, 0, len(st.sessions))
	for sess := range st.sessions {
		targets = append(targets, sess)
	}
	f.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		f.logger.Warn("failed to marshal feed message", "feed", feed, "err", err)
		return
	}
	for _, sess := range targets {
		sess.SafeSend(data)
	}
}

// congestionLevel maps people-per-square-meter onto the four display levels.
func congestionLevel(density float64) string {
	switch {
	case density < 1.5:
		return "free"
	case density < 2.5:
		return "moderate"
	case density < 3.5:
		return "congested"
	default:
		return "severe"
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
