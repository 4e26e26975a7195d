package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/sketchparty/models"
	"github.com/wfunc/sketchparty/network"
	"github.com/wfunc/sketchparty/presence"
	"github.com/wfunc/sketchparty/store"
)

// MockConnection records every packet sent to it.
type MockConnection struct {
	mu      sync.Mutex
	packets []network.Packet
	fail    bool
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("broken pipe")
	}
	m.packets = append(m.packets, network.Packet{MsgID: msgID, Data: data, Length: uint16(len(data))})
	return nil
}
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func (m *MockConnection) sent() []network.Packet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]network.Packet(nil), m.packets...)
}

func setup(t *testing.T) (*Hub, map[string]*MockConnection) {
	t.Helper()
	ctx := context.Background()
	registry := presence.NewRegistry(store.NewMemoryStore(time.Hour))
	conns := map[string]*MockConnection{}
	for _, c := range []struct{ id, user, room string }{
		{"c1", "alice", "r1"},
		{"c2", "bob", "r1"},
		{"c3", "alice", "r1"},
		{"c4", "carol", "r2"},
	} {
		conn := &MockConnection{}
		conns[c.id] = conn
		registry.Bind(presence.NewSession(c.id, c.user, conn))
		_, err := registry.Join(ctx, c.id, c.room)
		require.NoError(t, err)
	}
	return NewHub(registry), conns
}

func TestEmitToRoom_ReachesOnlyRoomMembers(t *testing.T) {
	hub, conns := setup(t)
	payload := models.GameStopped{RoomID: "r1", Reason: "paused"}
	require.NoError(t, hub.EmitToRoom("r1", models.EventGameStopped, payload))

	for _, id := range []string{"c1", "c2", "c3"} {
		sent := conns[id].sent()
		require.Len(t, sent, 1, id)
		assert.Equal(t, uint16(network.MsgTypeGameStopped), sent[0].MsgID)
		var got models.GameStopped
		require.NoError(t, json.Unmarshal(sent[0].Data, &got))
		assert.Equal(t, payload, got)
	}
	assert.Empty(t, conns["c4"].sent())
}

func TestEmitToUser_AllConnectionsOfUser(t *testing.T) {
	hub, conns := setup(t)
	require.NoError(t, hub.EmitToUser("r1", "alice", models.EventKeywordForDrawer, models.KeywordForDrawer{RoomID: "r1", Keyword: "apple"}))

	assert.Len(t, conns["c1"].sent(), 1)
	assert.Len(t, conns["c3"].sent(), 1)
	assert.Empty(t, conns["c2"].sent())
}

func TestEmitToConnection(t *testing.T) {
	hub, conns := setup(t)
	require.NoError(t, hub.EmitToConnection("c2", models.EventError, models.ErrorNotice{Code: "room_full"}))
	assert.Len(t, conns["c2"].sent(), 1)

	err := hub.EmitToConnection("missing", models.EventError, models.ErrorNotice{})
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestEmit_UnknownEvent(t *testing.T) {
	hub, _ := setup(t)
	err := hub.EmitToRoom("r1", "canvasStroke", nil)
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestEmitToRoom_FailedSendDoesNotStopFanOut(t *testing.T) {
	hub, conns := setup(t)
	conns["c1"].fail = true
	require.NoError(t, hub.EmitToRoom("r1", models.EventChatMessage, models.ChatMessage{Text: "hi"}))
	assert.Len(t, conns["c2"].sent(), 1)
	assert.Len(t, conns["c3"].sent(), 1)
}
