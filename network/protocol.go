package network

import "github.com/wfunc/sketchparty/models"

// Client -> server
const (
	MsgTypeHeartbeat   = 1
	MsgTypeJoinRoom    = 101
	MsgTypeLeaveRoom   = 102
	MsgTypeCreateRoom  = 103
	MsgTypeStartGame   = 104
	MsgTypePauseGame   = 105
	MsgTypeSubmitGuess = 201
	MsgTypeRequestHint = 202
)

// Server -> client
const (
	MsgTypeMembershipChanged = 301
	MsgTypeRoundStarted      = 302
	MsgTypeKeywordForDrawer  = 303
	MsgTypeRoundSync         = 304
	MsgTypeHintRevealed      = 305
	MsgTypeCorrectGuess      = 306
	MsgTypeCloseGuess        = 307
	MsgTypeChatMessage       = 308
	MsgTypeRoundEnded        = 309
	MsgTypeGameEnded         = 310
	MsgTypeGameStopped       = 311
	MsgTypeRoomCreated       = 312
	MsgTypeError             = 399
)

var eventMsgIDs = map[string]uint16{
	models.EventMembershipChanged: MsgTypeMembershipChanged,
	models.EventRoundStarted:      MsgTypeRoundStarted,
	models.EventKeywordForDrawer:  MsgTypeKeywordForDrawer,
	models.EventRoundSync:         MsgTypeRoundSync,
	models.EventHintRevealed:      MsgTypeHintRevealed,
	models.EventCorrectGuess:      MsgTypeCorrectGuess,
	models.EventCloseGuess:        MsgTypeCloseGuess,
	models.EventChatMessage:       MsgTypeChatMessage,
	models.EventRoundEnded:        MsgTypeRoundEnded,
	models.EventGameEnded:         MsgTypeGameEnded,
	models.EventGameStopped:       MsgTypeGameStopped,
	models.EventError:             MsgTypeError,
}

// MsgIDForEvent returns the wire message id of an outbound event name.
func MsgIDForEvent(event string) (uint16, bool) {
	id, ok := eventMsgIDs[event]
	return id, ok
}

// EventForMsgID is the reverse of MsgIDForEvent.
func EventForMsgID(msgID uint16) (string, bool) {
	for event, id := range eventMsgIDs {
		if id == msgID {
			return event, true
		}
	}
	return "", false
}
