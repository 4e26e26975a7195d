// broadcast/broadcast.go
package broadcast

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wfunc/sketchparty/logger"
	"github.com/wfunc/sketchparty/network"
	"github.com/wfunc/sketchparty/presence"
)

var (
	ErrUnknownEvent       = errors.New("unknown event")
	ErrConnectionNotFound = errors.New("connection not found")
)

// 广播接口
type Broadcaster interface {
	EmitToRoom(roomID, event string, payload any) error
	EmitToConnection(connID, event string, payload any) error
	EmitToUser(roomID, username, event string, payload any) error
}

// Hub fans events out to the connections the presence registry knows about.
// Delivery is best effort: a failed send is logged and the rest still receive it.
type Hub struct {
	presence *presence.Registry
}

func NewHub(registry *presence.Registry) *Hub {
	return &Hub{presence: registry}
}

func encode(event string, payload any) (uint16, []byte, error) {
	msgID, ok := network.MsgIDForEvent(event)
	if !ok {
		return 0, nil, fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return msgID, data, nil
}

func (h *Hub) EmitToRoom(roomID, event string, payload any) error {
	msgID, data, err := encode(event, payload)
	if err != nil {
		return err
	}
	h.send(h.presence.ConnectionsInRoom(roomID), msgID, data)
	return nil
}

func (h *Hub) EmitToConnection(connID, event string, payload any) error {
	msgID, data, err := encode(event, payload)
	if err != nil {
		return err
	}
	s, ok := h.presence.Session(connID)
	if !ok {
		return ErrConnectionNotFound
	}
	return s.Send(msgID, data)
}

// EmitToUser reaches every connection of username inside the room.
func (h *Hub) EmitToUser(roomID, username, event string, payload any) error {
	msgID, data, err := encode(event, payload)
	if err != nil {
		return err
	}
	h.send(h.presence.ConnectionsOf(roomID, username), msgID, data)
	return nil
}

func (h *Hub) send(sessions []*presence.Session, msgID uint16, data []byte) {
	for _, s := range sessions {
		if err := s.Send(msgID, data); err != nil {
			// 发送失败的连接由读循环负责清理
			logger.Log.Warnf("send %d to session %s: %v", msgID, s.ID, err)
		}
	}
}
