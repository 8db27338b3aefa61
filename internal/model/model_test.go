package model

import "testing"

func TestStatusForDensity(t *testing.T) {
	tests := []struct {
		density int
		want    ZoneStatus
	}{
		{0, ZoneLow},
		{29, ZoneLow},
		{30, ZoneNormal},
		{49, ZoneNormal},
		{50, ZoneModerate},
		{69, ZoneModerate},
		{70, ZoneHigh},
		{84, ZoneHigh},
		{85, ZoneCritical},
		{90, ZoneCritical},
		{100, ZoneCritical},
	}
	for _, tt := range tests {
		if got := StatusForDensity(tt.density); got != tt.want {
			t.Errorf("StatusForDensity(%d) = %q, want %q", tt.density, got, tt.want)
		}
	}
}

func TestZoneRecompute(t *testing.T) {
	z := Zone{ID: "z1", Density: 130, Capacity: 2000}
	z.Recompute()
	if z.Density != 100 {
		t.Errorf("density not clamped: got %d", z.Density)
	}
	if z.Status != ZoneCritical {
		t.Errorf("status = %q, want critical", z.Status)
	}
	if z.CurrentCount != 2000 {
		t.Errorf("currentCount = %d, want 2000", z.CurrentCount)
	}

	z.Density = -5
	z.Recompute()
	if z.Density != 0 || z.CurrentCount != 0 || z.Status != ZoneLow {
		t.Errorf("after negative clamp: density=%d count=%d status=%q", z.Density, z.CurrentCount, z.Status)
	}
}

func TestGateStatusIsValid(t *testing.T) {
	for _, s := range []GateStatus{GateOpen, GateRestricted, GateClosed} {
		if !s.IsValid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []GateStatus{"", "locked", "OPEN"} {
		if s.IsValid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestValidateGateStatus(t *testing.T) {
	if err := ValidateGateStatus(GateRestricted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := ValidateGateStatus("bogus")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
}

func TestAlertActive(t *testing.T) {
	tests := []struct {
		name  string
		alert Alert
		want  bool
	}{
		{"unacked critical", Alert{Severity: SeverityCritical, Status: AlertUnacknowledged}, true},
		{"acked critical", Alert{Severity: SeverityCritical, Status: AlertAcknowledged}, false},
		{"acked warning", Alert{Severity: SeverityWarning, Status: AlertAcknowledged}, true},
		{"resolved info", Alert{Severity: SeverityInfo, Status: AlertResolved}, false},
	}
	for _, tt := range tests {
		if got := tt.alert.Active(); got != tt.want {
			t.Errorf("%s: Active() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestStateClone(t *testing.T) {
	st := &State{
		Zones:  []Zone{{ID: "z1", Density: 40}},
		Gates:  []Gate{{ID: "g1", Status: GateOpen}},
		Alerts: []Alert{{ID: "a1", Status: AlertUnacknowledged}},
	}
	clone := st.Clone()
	clone.Zones[0].Density = 99
	clone.Gates[0].Status = GateClosed
	clone.Alerts[0].Status = AlertAcknowledged

	if st.Zones[0].Density != 40 || st.Gates[0].Status != GateOpen || st.Alerts[0].Status != AlertUnacknowledged {
		t.Error("clone aliases the original backing arrays")
	}
}
