// store/memory.go
package store

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/wfunc/sketchparty/models"
)

type memRoom struct {
	data    []byte
	expires time.Time
}

type memScore struct {
	score int64
	seq   uint64
}

// MemoryStore is an in-process Store for tests and single-node development.
type MemoryStore struct {
	mutex sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	seq   uint64

	rooms    map[string]memRoom
	members  map[string][]string
	pending  map[string][]string
	used     map[string][]string
	scores   map[string]map[string]*memScore
	addPoint map[string]int64
	rounds   map[string][]byte
	answered map[string]map[string]struct{}
}

// NewMemoryStore creates an empty store; ttl <= 0 disables room expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		rooms:    make(map[string]memRoom),
		members:  make(map[string][]string),
		pending:  make(map[string][]string),
		used:     make(map[string][]string),
		scores:   make(map[string]map[string]*memScore),
		addPoint: make(map[string]int64),
		rounds:   make(map[string][]byte),
		answered: make(map[string]map[string]struct{}),
	}
}

// SetClock replaces the time source used for room expiry.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.now = now
}

func (s *MemoryStore) Close() error { return nil }

// --- rooms ---

func (s *MemoryStore) liveRoom(roomID string) (memRoom, bool) {
	r, ok := s.rooms[roomID]
	if !ok {
		return memRoom{}, false
	}
	if !r.expires.IsZero() && !s.now().Before(r.expires) {
		delete(s.rooms, roomID)
		return memRoom{}, false
	}
	return r, true
}

func (s *MemoryStore) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	r, ok := s.liveRoom(roomID)
	if !ok {
		return nil, ErrNotFound
	}
	return models.DecodeRoom(r.data, 0)
}

func (s *MemoryStore) SaveRoom(ctx context.Context, room *models.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	r := memRoom{data: data}
	if s.ttl > 0 {
		r.expires = s.now().Add(s.ttl)
	}
	s.rooms[room.ID] = r
	return nil
}

func (s *MemoryStore) TouchRoom(ctx context.Context, roomID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	r, ok := s.liveRoom(roomID)
	if !ok {
		return ErrNotFound
	}
	if s.ttl > 0 {
		r.expires = s.now().Add(s.ttl)
		s.rooms[roomID] = r
	}
	return nil
}

func (s *MemoryStore) ListRooms(ctx context.Context) ([]*models.Room, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rooms := make([]*models.Room, 0, len(ids))
	for _, id := range ids {
		r, ok := s.liveRoom(id)
		if !ok {
			continue
		}
		room, err := models.DecodeRoom(r.data, 0)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (s *MemoryStore) DeleteRoom(ctx context.Context, roomID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.rooms, roomID)
	delete(s.members, roomID)
	delete(s.pending, roomID)
	delete(s.used, roomID)
	delete(s.scores, roomID)
	delete(s.addPoint, roomID)
	delete(s.rounds, roomID)
	delete(s.answered, roomID)
	return nil
}

// --- members ---

func (s *MemoryStore) AddMember(ctx context.Context, roomID, username string) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !slices.Contains(s.members[roomID], username) {
		s.members[roomID] = append(s.members[roomID], username)
	}
	return int64(len(s.members[roomID])), nil
}

func (s *MemoryStore) RemoveMember(ctx context.Context, roomID, username string) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.members[roomID] = slices.DeleteFunc(s.members[roomID], func(m string) bool { return m == username })
	return int64(len(s.members[roomID])), nil
}

func (s *MemoryStore) Members(ctx context.Context, roomID string) ([]string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return slices.Clone(s.members[roomID]), nil
}

func (s *MemoryStore) MemberCount(ctx context.Context, roomID string) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return int64(len(s.members[roomID])), nil
}

func (s *MemoryStore) IsMember(ctx context.Context, roomID, username string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return slices.Contains(s.members[roomID], username), nil
}

// --- rotation ---

func (s *MemoryStore) PushPending(ctx context.Context, roomID string, usernames ...string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pending[roomID] = append(s.pending[roomID], usernames...)
	return nil
}

func (s *MemoryStore) PopPending(ctx context.Context, roomID string) (string, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	q := s.pending[roomID]
	if len(q) == 0 {
		return "", false, nil
	}
	s.pending[roomID] = q[1:]
	return q[0], true, nil
}

func (s *MemoryStore) RemovePending(ctx context.Context, roomID, username string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pending[roomID] = slices.DeleteFunc(s.pending[roomID], func(m string) bool { return m == username })
	return nil
}

func (s *MemoryStore) Pending(ctx context.Context, roomID string) ([]string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return slices.Clone(s.pending[roomID]), nil
}

func (s *MemoryStore) ClearPending(ctx context.Context, roomID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.pending, roomID)
	return nil
}

func (s *MemoryStore) UsedKeywords(ctx context.Context, roomID string) ([]string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return slices.Clone(s.used[roomID]), nil
}

func (s *MemoryStore) AddUsedKeyword(ctx context.Context, roomID, keyword string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !slices.Contains(s.used[roomID], keyword) {
		s.used[roomID] = append(s.used[roomID], keyword)
	}
	return nil
}

func (s *MemoryStore) ClearUsedKeywords(ctx context.Context, roomID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.used, roomID)
	return nil
}

// --- scores ---

func (s *MemoryStore) IncrScore(ctx context.Context, roomID, username string, delta int64) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	board, ok := s.scores[roomID]
	if !ok {
		board = make(map[string]*memScore)
		s.scores[roomID] = board
	}
	s.seq++
	entry, ok := board[username]
	if !ok {
		entry = &memScore{}
		board[username] = entry
	}
	entry.score += delta
	entry.seq = s.seq
	return entry.score, nil
}

// Scores orders ties by the time of the last update, earliest first.
func (s *MemoryStore) Scores(ctx context.Context, roomID string, n int) ([]models.ScoreEntry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	board := s.scores[roomID]
	type row struct {
		name string
		*memScore
	}
	rows := make([]row, 0, len(board))
	for name, sc := range board {
		rows = append(rows, row{name, sc})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].score != rows[j].score {
			return rows[i].score > rows[j].score
		}
		return rows[i].seq < rows[j].seq
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}

	out := make([]models.ScoreEntry, len(rows))
	for i, r := range rows {
		out[i] = models.ScoreEntry{Username: r.name, Score: r.score}
	}
	return out, nil
}

func (s *MemoryStore) Score(ctx context.Context, roomID, username string) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if sc, ok := s.scores[roomID][username]; ok {
		return sc.score, nil
	}
	return 0, nil
}

func (s *MemoryStore) ClearScores(ctx context.Context, roomID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.scores, roomID)
	return nil
}

func (s *MemoryStore) AddPoint(ctx context.Context, roomID string) (int64, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	v, ok := s.addPoint[roomID]
	return v, ok, nil
}

func (s *MemoryStore) SetAddPoint(ctx context.Context, roomID string, value int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.addPoint[roomID] = value
	return nil
}

// --- rounds ---

func (s *MemoryStore) GetRound(ctx context.Context, roomID string) (*models.RoundState, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, ok := s.rounds[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	var round models.RoundState
	if err := json.Unmarshal(data, &round); err != nil {
		return nil, err
	}
	return &round, nil
}

func (s *MemoryStore) SaveRound(ctx context.Context, round *models.RoundState) error {
	data, err := json.Marshal(round)
	if err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.rounds[round.RoomID] = data
	return nil
}

func (s *MemoryStore) DeleteRound(ctx context.Context, roomID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.rounds, roomID)
	delete(s.answered, roomID)
	return nil
}

func (s *MemoryStore) MarkAnswered(ctx context.Context, roomID, username string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	set, ok := s.answered[roomID]
	if !ok {
		set = make(map[string]struct{})
		s.answered[roomID] = set
	}
	if _, exists := set[username]; exists {
		return false, nil
	}
	set[username] = struct{}{}
	return true, nil
}

func (s *MemoryStore) Answered(ctx context.Context, roomID string) ([]string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]string, 0, len(s.answered[roomID]))
	for name := range s.answered[roomID] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) ClearAnswered(ctx context.Context, roomID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.answered, roomID)
	return nil
}
