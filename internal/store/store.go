// Package store owns the authoritative in-memory simulation state.
//
// All mutation goes through Store methods under a single mutex, so the
// simulation ticker and command handlers never interleave. Readers only
// ever see deep-copied snapshots.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/sleep-404/SmartDarshan/internal/model"
)

// ErrNotFound is returned when a referenced zone, gate, or alert does not exist.
var ErrNotFound = errors.New("not found")

// Store guards the single mutable State instance.
type Store struct {
	mu    sync.Mutex
	state *model.State
}

// New returns a store initialized with the given state. Passing nil seeds
// the default temple layout.
func New(initial *model.State) *Store {
	if initial == nil {
		initial = Seed(time.Now().UTC())
	}
	for i := range initial.Zones {
		initial.Zones[i].Recompute()
	}
	return &Store{state: initial}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Mutate runs fn against the live state under the store lock and returns a
// snapshot taken after fn completes. The ticker funnels its whole update
// through one Mutate call so no partial-tick snapshot can ever be observed.
func (s *Store) Mutate(fn func(*model.State)) *model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
	return s.state.Clone()
}

// AcknowledgeAlert transitions an alert to acknowledged. Alerts already
// acknowledged or resolved are returned unchanged; the transition is
// strictly one-way.
func (s *Store) AcknowledgeAlert(id string) (model.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Alerts {
		a := &s.state.Alerts[i]
		if a.ID != id {
			continue
		}
		if a.Status == model.AlertUnacknowledged {
			a.Status = model.AlertAcknowledged
		}
		return *a, nil
	}
	return model.Alert{}, ErrNotFound
}

// SetGateStatus replaces a gate's status after validation. Flow rates and
// congestion are left untouched.
func (s *Store) SetGateStatus(id string, status model.GateStatus) (model.Gate, error) {
	if err := model.ValidateGateStatus(status); err != nil {
		return model.Gate{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Gates {
		g := &s.state.Gates[i]
		if g.ID != id {
			continue
		}
		g.Status = status
		return *g, nil
	}
	return model.Gate{}, ErrNotFound
}

// Gate returns a copy of a single gate.
func (s *Store) Gate(id string) (model.Gate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.state.Gates {
		if g.ID == id {
			return g, nil
		}
	}
	return model.Gate{}, ErrNotFound
}

// Alert returns a copy of a single alert.
func (s *Store) Alert(id string) (model.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.state.Alerts {
		if a.ID == id {
			return a, nil
		}
	}
	return model.Alert{}, ErrNotFound
}
