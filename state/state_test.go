package state

import (
	"errors"
	"testing"
)

func TestRoundTable_AllowedPath(t *testing.T) {
	table := RoundTable()
	path := []Phase{PhaseIdle, PhaseDrawing, PhaseRoundEnd, PhaseDrawing, PhaseRoundEnd, PhaseGameEnd, PhaseIdle}
	for i := 1; i < len(path); i++ {
		if err := table.Check(path[i-1], path[i]); err != nil {
			t.Errorf("Expected %s -> %s to be allowed, got %v", path[i-1], path[i], err)
		}
	}
}

func TestRoundTable_Rejected(t *testing.T) {
	table := RoundTable()
	cases := []struct{ from, to Phase }{
		{PhaseIdle, PhaseRoundEnd},
		{PhaseDrawing, PhaseDrawing},
		{PhaseDrawing, PhaseGameEnd},
		{PhaseGameEnd, PhaseDrawing},
	}
	for _, c := range cases {
		err := table.Check(c.from, c.to)
		if !errors.Is(err, ErrTransitionNotAllowed) {
			t.Errorf("Expected ErrTransitionNotAllowed for %s -> %s, got %v", c.from, c.to, err)
		}
	}
}

func TestTable_Guard(t *testing.T) {
	table := NewTable()
	open := false
	table.AddTransition("A", "B", func() bool { return open })

	if err := table.Check("A", "B"); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("Expected guard to block the transition, got %v", err)
	}
	open = true
	if err := table.Check("A", "B"); err != nil {
		t.Fatalf("Expected transition to be allowed once the guard passes, got %v", err)
	}
}

func TestParsePhase(t *testing.T) {
	if p, err := ParsePhase(""); err != nil || p != PhaseIdle {
		t.Errorf("Expected empty phase to parse as idle, got %q, %v", p, err)
	}
	if p, err := ParsePhase("round_end"); err != nil || p != PhaseRoundEnd {
		t.Errorf("Expected round_end, got %q, %v", p, err)
	}
	if _, err := ParsePhase("gaming"); err == nil {
		t.Error("Expected an error for an unknown phase")
	}
}
