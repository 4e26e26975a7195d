// presence/registry.go
package presence

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/wfunc/sketchparty/store"
)

var ErrUnknownConnection = errors.New("unknown connection")

// Registry maps connections to usernames and keeps room membership in the store.
// A username stays a member while at least one of its connections is in the room.
type Registry struct {
	sessions *Manager
	members  store.MemberStore
	rooms    map[string]map[string]*Session // roomID -> sessionID -> session
	mutex    sync.RWMutex
}

func NewRegistry(members store.MemberStore) *Registry {
	return &Registry{
		sessions: NewManager(),
		members:  members,
		rooms:    make(map[string]map[string]*Session),
	}
}

// Bind registers a new connection.
func (r *Registry) Bind(s *Session) {
	r.sessions.Add(s)
}

func (r *Registry) Session(connID string) (*Session, bool) {
	return r.sessions.Get(connID)
}

// Sessions returns every bound connection.
func (r *Registry) Sessions() []*Session {
	return r.sessions.All()
}

// Online returns the number of bound connections.
func (r *Registry) Online() int {
	return r.sessions.Count()
}

// Join adds the connection to the room and returns the member count.
func (r *Registry) Join(ctx context.Context, connID, roomID string) (int64, error) {
	s, ok := r.sessions.Get(connID)
	if !ok {
		return 0, ErrUnknownConnection
	}
	count, err := r.members.AddMember(ctx, roomID, s.Username)
	if err != nil {
		return 0, err
	}

	r.mutex.Lock()
	conns, ok := r.rooms[roomID]
	if !ok {
		conns = make(map[string]*Session)
		r.rooms[roomID] = conns
	}
	conns[connID] = s
	r.mutex.Unlock()

	s.addRoom(roomID)
	return count, nil
}

// Leave removes the connection from the room. removed reports whether the username
// left the membership set, which only happens once its last connection is gone.
func (r *Registry) Leave(ctx context.Context, connID, roomID string) (count int64, removed bool, err error) {
	s, ok := r.sessions.Get(connID)
	if !ok {
		return 0, false, ErrUnknownConnection
	}

	r.mutex.Lock()
	conns := r.rooms[roomID]
	delete(conns, connID)
	remaining := false
	for _, other := range conns {
		if other.Username == s.Username {
			remaining = true
			break
		}
	}
	if len(conns) == 0 {
		delete(r.rooms, roomID)
	}
	r.mutex.Unlock()

	s.removeRoom(roomID)

	if remaining {
		count, err = r.members.MemberCount(ctx, roomID)
		return count, false, err
	}
	count, err = r.members.RemoveMember(ctx, roomID, s.Username)
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

// Unbind forgets a connection. Callers leave its rooms first.
func (r *Registry) Unbind(connID string) {
	s, ok := r.sessions.Get(connID)
	if !ok {
		return
	}
	r.mutex.Lock()
	for _, roomID := range s.Rooms() {
		if conns, ok := r.rooms[roomID]; ok {
			delete(conns, connID)
			if len(conns) == 0 {
				delete(r.rooms, roomID)
			}
		}
	}
	r.mutex.Unlock()
	r.sessions.Remove(connID)
}

// RoomsOf returns the rooms a connection has joined.
func (r *Registry) RoomsOf(connID string) []string {
	s, ok := r.sessions.Get(connID)
	if !ok {
		return nil
	}
	return s.Rooms()
}

func (r *Registry) Count(ctx context.Context, roomID string) (int64, error) {
	return r.members.MemberCount(ctx, roomID)
}

func (r *Registry) Members(ctx context.Context, roomID string) ([]string, error) {
	return r.members.Members(ctx, roomID)
}

func (r *Registry) IsMember(ctx context.Context, roomID, username string) (bool, error) {
	return r.members.IsMember(ctx, roomID, username)
}

// ConnectionsInRoom returns every session joined to the room, ordered by id.
func (r *Registry) ConnectionsInRoom(roomID string) []*Session {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	conns := r.rooms[roomID]
	out := make([]*Session, 0, len(conns))
	for _, s := range conns {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ConnectionsOf returns the sessions of one username inside a room.
func (r *Registry) ConnectionsOf(roomID, username string) []*Session {
	var out []*Session
	for _, s := range r.ConnectionsInRoom(roomID) {
		if s.Username == username {
			out = append(out, s)
		}
	}
	return out
}
