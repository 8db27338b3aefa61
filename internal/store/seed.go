package store

import (
	"time"

	"github.com/sleep-404/SmartDarshan/internal/model"
)

// Seed builds the startup world: fixed zones, gates, and a handful of
// alerts. Entities are created once here and mutated in place for the
// process lifetime; only threshold-triggered alerts are appended later.
func Seed(now time.Time) *model.State {
	return &model.State{
		Realtime: model.Realtime{
			Footfall:    10000,
			QueueLength: 450,
			WaitTimeMin: 90,
		},
		Zones: []model.Zone{
			{ID: "sanctum", Name: "Sanctum Corridor", Density: 78, Capacity: 800},
			{ID: "queue-complex", Name: "Queue Complex", Density: 88, Capacity: 4000},
			{ID: "prasadam-hall", Name: "Prasadam Hall", Density: 55, Capacity: 1200},
			{ID: "outer-courtyard", Name: "Outer Courtyard", Density: 34, Capacity: 6000},
		},
		Gates: []model.Gate{
			{ID: "north", Name: "North Gate", Type: model.GateEntryExit, Status: model.GateOpen, EntryRate: 42, ExitRate: 31, Congestion: 48},
			{ID: "south", Name: "South Gate", Type: model.GateEntryExit, Status: model.GateOpen, EntryRate: 55, ExitRate: 40, Congestion: 62},
			{ID: "east", Name: "East Gate", Type: model.GateEntryOnly, Status: model.GateRestricted, EntryRate: 18, Congestion: 30},
		},
		Alerts: []model.Alert{
			{
				ID:        "al-seed-1",
				Severity:  model.SeverityCritical,
				Message:   "Crowd density approaching critical in Queue Complex",
				Zone:      "queue-complex",
				Status:    model.AlertUnacknowledged,
				Timestamp: now,
			},
			{
				ID:        "al-seed-2",
				Severity:  model.SeverityWarning,
				Message:   "Congestion building at South Gate",
				Zone:      "outer-courtyard",
				Status:    model.AlertAcknowledged,
				Timestamp: now.Add(-10 * time.Minute),
			},
			{
				ID:        "al-seed-3",
				Severity:  model.SeverityInfo,
				Message:   "Morning darshan window opened",
				Zone:      "sanctum",
				Status:    model.AlertResolved,
				Timestamp: now.Add(-2 * time.Hour),
			},
		},
		SystemHealth: model.SystemHealth{
			VMS:      model.VMHealth{CPU: 42, Memory: 58},
			LastSync: now,
		},
	}
}
