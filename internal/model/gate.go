package model

// GateType distinguishes bidirectional gates from entry-only gates.
// The type is fixed at creation and never changes during simulation.
type GateType string

const (
	GateEntryExit GateType = "entry-exit"
	GateEntryOnly GateType = "entry-only"
)

// GateStatus is the operational state of a gate.
type GateStatus string

const (
	GateOpen       GateStatus = "open"
	GateRestricted GateStatus = "restricted"
	GateClosed     GateStatus = "closed"
)

// String returns the string representation of the gate status.
func (s GateStatus) String() string {
	return string(s)
}

// IsValid checks whether the gate status is a known value.
func (s GateStatus) IsValid() bool {
	switch s {
	case GateOpen, GateRestricted, GateClosed:
		return true
	}
	return false
}

// Gate is an entry/exit control point. ExitRate is only meaningful for
// entry-exit gates; congestion is kept within [10,90] by the simulation.
type Gate struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       GateType   `json:"type"`
	Status     GateStatus `json:"status"`
	EntryRate  int        `json:"entryRate"`
	ExitRate   int        `json:"exitRate"`
	Congestion int        `json:"congestion"`
}
