package model

import "time"

// VMHealth holds the simulated video-management-system host metrics.
// CPU and memory are percentages bounded to [0,100].
type VMHealth struct {
	CPU    int `json:"cpu"`
	Memory int `json:"memory"`
}

// SystemHealth is the dashboard's infrastructure snapshot. LastSync is
// strictly increasing; it advances on every tick.
type SystemHealth struct {
	VMS      VMHealth  `json:"vms"`
	LastSync time.Time `json:"lastSync"`
}

// Realtime holds the headline crowd figures shown on the main dashboard.
type Realtime struct {
	Footfall    int `json:"footfall"`
	QueueLength int `json:"queueLength"`
	WaitTimeMin int `json:"waitTimeMin"`
}

// State is the complete simulated world. Snapshots of this struct are what
// the hub broadcasts; the store owns the single mutable instance.
type State struct {
	Tick         uint64       `json:"tick"`
	Realtime     Realtime     `json:"realtime"`
	Zones        []Zone       `json:"zones"`
	Gates        []Gate       `json:"gates"`
	Alerts       []Alert      `json:"alerts"`
	SystemHealth SystemHealth `json:"systemHealth"`
}

// Clone returns a deep copy of the state. Slices are copied so a snapshot
// never aliases the store's mutable backing arrays.
func (s *State) Clone() *State {
	out := *s
	out.Zones = append([]Zone(nil), s.Zones...)
	out.Gates = append([]Gate(nil), s.Gates...)
	out.Alerts = append([]Alert(nil), s.Alerts...)
	return &out
}

// ActiveAlerts returns the alerts included in broadcast payloads.
func (s *State) ActiveAlerts() []Alert {
	out := make([]Alert, 0, len(s.Alerts))
	for _, a := range s.Alerts {
		if a.Active() {
			out = append(out, a)
		}
	}
	return out
}
