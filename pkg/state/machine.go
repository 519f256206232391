// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package state

import (
	"sync"
	"time"

	"github.com/kadirpekel/agentrt/pkg/agenterr"
)

// TransitionEvent records one completed transition for the audit trail
// returned by History.
type TransitionEvent struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is the persistable view of a Machine's runtime state.
type Snapshot struct {
	CurrentState  string            `json:"current_state"`
	PreviousState string            `json:"previous_state,omitempty"`
	TurnCount     uint32            `json:"turn_count"`
	History       []TransitionEvent `json:"history,omitempty"`
}

// Machine is a running instance of a Config: the current/previous state,
// a per-state turn counter, and an append-only transition history. All
// mutation is guarded by a single RWMutex; no lock is ever held across a
// suspension point (the caller resolves transitions before calling
// TransitionTo, never from inside a locked section).
type Machine struct {
	mu sync.RWMutex

	cfg      Config
	current  string
	previous string
	turns    uint32
	history  []TransitionEvent
}

// New validates cfg and builds a Machine positioned at its initial state.
func New(cfg Config) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Machine{cfg: cfg, current: cfg.Initial}, nil
}

// Current returns the current state id.
func (m *Machine) Current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Previous returns the state id the machine most recently transitioned
// from, or "" if no transition has happened yet.
func (m *Machine) Previous() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.previous
}

// TurnCount returns the number of turns completed in the current state
// without a transition.
func (m *Machine) TurnCount() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.turns
}

// CurrentDefinition returns the Definition for the current state.
func (m *Machine) CurrentDefinition() Definition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.States[m.current]
}

// Definition looks up a named state's Definition.
func (m *Machine) Definition(id string) (Definition, bool) {
	d, ok := m.cfg.States[id]
	return d, ok
}

// AvailableTransitions returns the current state's transitions sorted by
// descending priority.
func (m *Machine) AvailableTransitions() []Transition {
	return sortedTransitions(m.CurrentDefinition().Transitions)
}

// AutoTransitions returns the subset of AvailableTransitions eligible for
// automatic, evaluator-driven selection.
func (m *Machine) AutoTransitions() []Transition {
	all := m.AvailableTransitions()
	out := make([]Transition, 0, len(all))
	for _, t := range all {
		if t.Auto {
			out = append(out, t)
		}
	}
	return out
}

// TransitionTo moves the machine to state, resets the per-state turn
// counter to 0, and appends a TransitionEvent to the history. It rejects
// transitions to undeclared states.
func (m *Machine) TransitionTo(stateID, reason string) error {
	if _, ok := m.cfg.States[stateID]; !ok {
		return agenterr.Invalid("unknown state: %s", stateID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.current
	m.previous = from
	m.current = stateID
	m.turns = 0
	m.history = append(m.history, TransitionEvent{
		From:      from,
		To:        stateID,
		Reason:    reason,
		Timestamp: timeNow(),
	})
	return nil
}

// IncrementTurn bumps the per-state turn counter. The orchestrator calls
// this once per turn that does not end in a transition.
func (m *Machine) IncrementTurn() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns++
}

// History returns a copy of the append-only transition event log.
func (m *Machine) History() []TransitionEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]TransitionEvent, len(m.history))
	copy(out, m.history)
	return out
}

// Reset returns the machine to its configured initial state, clearing
// previous state, turn count, and history.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.cfg.Initial
	m.previous = ""
	m.turns = 0
	m.history = nil
}

// CheckTimeout reports the configured timeout_to target if the current
// state declares max_turns and the per-state turn count has reached it;
// otherwise it returns "", false. The caller (orchestrator) is
// responsible for calling TransitionTo with the result — CheckTimeout
// never mutates the machine itself.
func (m *Machine) CheckTimeout() (string, bool) {
	def := m.CurrentDefinition()
	if def.MaxTurns == nil || def.TimeoutTo == "" {
		return "", false
	}
	if m.TurnCount() >= *def.MaxTurns {
		return def.TimeoutTo, true
	}
	return "", false
}

// Config returns the machine's declarative configuration.
func (m *Machine) Config() Config {
	return m.cfg
}

// Snapshot captures the machine's current runtime state for persistence.
func (m *Machine) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := make([]TransitionEvent, len(m.history))
	copy(history, m.history)
	return Snapshot{
		CurrentState:  m.current,
		PreviousState: m.previous,
		TurnCount:     m.turns,
		History:       history,
	}
}

// Restore replaces the machine's runtime state with a previously
// captured Snapshot. It rejects snapshots referencing an undeclared
// current state (spec invariant: restore must fail closed, not silently
// reset).
func (m *Machine) Restore(s Snapshot) error {
	if _, ok := m.cfg.States[s.CurrentState]; !ok {
		return agenterr.Invalid("snapshot contains unknown state: %s", s.CurrentState)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s.CurrentState
	m.previous = s.PreviousState
	m.turns = s.TurnCount
	m.history = make([]TransitionEvent, len(s.History))
	copy(m.history, s.History)
	return nil
}

var timeNow = time.Now
