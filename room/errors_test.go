package room

import (
	"errors"
	"fmt"
	"testing"

	"github.com/wfunc/sketchparty/presence"
	"github.com/wfunc/sketchparty/rotation"
	"github.com/wfunc/sketchparty/round"
	"github.com/wfunc/sketchparty/state"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrRoomFull, "room_full"},
		{fmt.Errorf("join: %w", ErrRoomFull), "room_full"},
		{ErrNotHost, "not_host"},
		{fmt.Errorf("%w: name", ErrInvalidIntent), "invalid_request"},
		{round.ErrNotDrawer, "not_drawer"},
		{round.ErrInvalidHintLevel, "invalid_hint_level"},
		{rotation.ErrEmptyPool, "no_keywords"},
		{fmt.Errorf("start: %w", state.ErrTransitionNotAllowed), "invalid_state"},
		{presence.ErrUnknownConnection, "not_connected"},
		{errors.New("redis: connection refused"), "internal"},
	}
	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
