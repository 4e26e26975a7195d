package room

import (
	"errors"

	"github.com/wfunc/sketchparty/presence"
	"github.com/wfunc/sketchparty/rotation"
	"github.com/wfunc/sketchparty/round"
	"github.com/wfunc/sketchparty/state"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrNotHost          = errors.New("only the room owner can do this")
	ErrNotMember        = errors.New("not a member of this room")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrAlreadyPlaying   = errors.New("game already in progress")
	ErrNotPlaying       = errors.New("no game in progress")
	ErrInvalidIntent    = errors.New("invalid request")
	ErrClosed           = errors.New("room manager closed")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrRoomNotFound, "room_not_found"},
	{ErrRoomFull, "room_full"},
	{ErrNotHost, "not_host"},
	{ErrNotMember, "not_member"},
	{ErrNotEnoughPlayers, "not_enough_players"},
	{ErrAlreadyPlaying, "already_playing"},
	{ErrNotPlaying, "not_playing"},
	{ErrInvalidIntent, "invalid_request"},
	{ErrClosed, "unavailable"},
	{round.ErrNoActiveRound, "no_active_round"},
	{round.ErrNotDrawer, "not_drawer"},
	{round.ErrInvalidHintLevel, "invalid_hint_level"},
	{rotation.ErrEmptyPool, "no_keywords"},
	{rotation.ErrNoMembers, "no_members"},
	{state.ErrTransitionNotAllowed, "invalid_state"},
	{presence.ErrUnknownConnection, "not_connected"},
}

// ErrorCode maps an error to the short code sent to clients. Unknown errors are "internal".
func ErrorCode(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}
