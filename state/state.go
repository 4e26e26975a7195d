// Package state holds the round phase transition table.
package state

import (
	"errors"
	"fmt"
	"sync"
)

// Phase is the lifecycle phase of a room's round.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseDrawing  Phase = "drawing"
	PhaseRoundEnd Phase = "round_end"
	PhaseGameEnd  Phase = "game_end"
)

// ParsePhase maps a stored phase string back to a Phase; the empty string is idle.
func ParsePhase(s string) (Phase, error) {
	switch p := Phase(s); p {
	case "":
		return PhaseIdle, nil
	case PhaseIdle, PhaseDrawing, PhaseRoundEnd, PhaseGameEnd:
		return p, nil
	default:
		return "", fmt.Errorf("unknown phase %q", s)
	}
}

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// Guard vetoes a transition by returning false.
type Guard func() bool

// Table is the set of allowed phase transitions.
type Table struct {
	transitions map[Phase]map[Phase]Guard // from -> to -> guard
	mutex       sync.RWMutex
}

func NewTable() *Table {
	return &Table{transitions: make(map[Phase]map[Phase]Guard)}
}

// AddTransition allows from -> to. A nil guard always passes.
func (t *Table) AddTransition(from, to Phase, guard Guard) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, exists := t.transitions[from]; !exists {
		t.transitions[from] = make(map[Phase]Guard)
	}
	t.transitions[from][to] = guard
}

// Check returns ErrTransitionNotAllowed unless from -> to is registered and its guard passes.
func (t *Table) Check(from, to Phase) error {
	t.mutex.RLock()
	guard, exists := t.transitions[from][to]
	t.mutex.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, to)
	}
	if guard != nil && !guard() {
		return fmt.Errorf("%w: %s -> %s (guard)", ErrTransitionNotAllowed, from, to)
	}
	return nil
}

// RoundTable is Idle -> Drawing -> RoundEnd -> Drawing | GameEnd -> Idle.
// Any phase may fall back to Idle when a game is stopped.
func RoundTable() *Table {
	t := NewTable()
	t.AddTransition(PhaseIdle, PhaseDrawing, nil)
	t.AddTransition(PhaseDrawing, PhaseRoundEnd, nil)
	t.AddTransition(PhaseRoundEnd, PhaseDrawing, nil)
	t.AddTransition(PhaseRoundEnd, PhaseGameEnd, nil)
	t.AddTransition(PhaseGameEnd, PhaseIdle, nil)
	t.AddTransition(PhaseDrawing, PhaseIdle, nil)
	t.AddTransition(PhaseRoundEnd, PhaseIdle, nil)
	return t
}
