package model

import "time"

// AlertSeverity ranks how urgent an alert is.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityWarning  AlertSeverity = "warning"
	SeverityInfo     AlertSeverity = "info"
)

// AlertStatus is the lifecycle state of an alert. The only transition the
// mutation path performs is unacknowledged -> acknowledged; resolved exists
// only as a pre-set terminal state in seed data.
type AlertStatus string

const (
	AlertUnacknowledged AlertStatus = "unacknowledged"
	AlertAcknowledged   AlertStatus = "acknowledged"
	AlertResolved       AlertStatus = "resolved"
)

// Alert is a condition raised against a zone.
type Alert struct {
	ID        string        `json:"id"`
	Severity  AlertSeverity `json:"severity"`
	Message   string        `json:"message"`
	Zone      string        `json:"zone"`
	Status    AlertStatus   `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
}

// Active reports whether the alert should appear in broadcast payloads:
// anything still unacknowledged, plus warnings regardless of status.
func (a *Alert) Active() bool {
	return a.Status == AlertUnacknowledged || a.Severity == SeverityWarning
}
