package model

// ZoneStatus classifies a zone's congestion level.
// It is derived from density alone and recomputed on every tick.
type ZoneStatus string

const (
	ZoneCritical ZoneStatus = "critical"
	ZoneHigh     ZoneStatus = "high"
	ZoneModerate ZoneStatus = "moderate"
	ZoneNormal   ZoneStatus = "normal"
	ZoneLow      ZoneStatus = "low"
)

// String returns the string representation of the zone status.
func (s ZoneStatus) String() string {
	return string(s)
}

// Zone is a monitored physical area. Density is held in [0,100];
// Status and CurrentCount are derived fields, never set directly.
type Zone struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Density      int        `json:"density"`
	Status       ZoneStatus `json:"status"`
	CurrentCount int        `json:"currentCount"`
	Capacity     int        `json:"capacity"`
}

// Density thresholds for zone status classification.
const (
	densityCritical = 85
	densityHigh     = 70
	densityModerate = 50
	densityNormal   = 30
)

// StatusForDensity maps a density value to its zone status via fixed thresholds.
func StatusForDensity(density int) ZoneStatus {
	switch {
	case density >= densityCritical:
		return ZoneCritical
	case density >= densityHigh:
		return ZoneHigh
	case density >= densityModerate:
		return ZoneModerate
	case density >= densityNormal:
		return ZoneNormal
	default:
		return ZoneLow
	}
}

// Recompute clamps density into [0,100] and refreshes the derived fields.
func (z *Zone) Recompute() {
	z.Density = Clamp(z.Density, 0, 100)
	z.Status = StatusForDensity(z.Density)
	z.CurrentCount = z.Density * z.Capacity / 100
}

// Clamp restricts v to the closed range [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
