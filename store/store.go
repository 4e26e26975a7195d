// store/store.go
package store

import (
	"context"
	"errors"

	"github.com/wfunc/sketchparty/models"
)

var (
	ErrNotFound = errors.New("record not found")
)

// RoomStore holds room metadata records. Records expire after the idle TTL unless saved again.
type RoomStore interface {
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)
	SaveRoom(ctx context.Context, room *models.Room) error
	ListRooms(ctx context.Context) ([]*models.Room, error)
	DeleteRoom(ctx context.Context, roomID string) error
	// TouchRoom restarts the idle TTL of the room and its keys.
	// It returns ErrNotFound once the room record has expired.
	TouchRoom(ctx context.Context, roomID string) error
}

// MemberStore holds the join-ordered membership set of each room.
type MemberStore interface {
	// AddMember returns the new member count. Re-adding keeps the original join position.
	AddMember(ctx context.Context, roomID, username string) (int64, error)
	RemoveMember(ctx context.Context, roomID, username string) (int64, error)
	Members(ctx context.Context, roomID string) ([]string, error)
	MemberCount(ctx context.Context, roomID string) (int64, error)
	IsMember(ctx context.Context, roomID, username string) (bool, error)
}

// RotationStore holds the pending-drawer queue and the used-keyword set.
type RotationStore interface {
	PushPending(ctx context.Context, roomID string, usernames ...string) error
	// PopPending returns ok=false when the queue is empty.
	PopPending(ctx context.Context, roomID string) (username string, ok bool, err error)
	RemovePending(ctx context.Context, roomID, username string) error
	Pending(ctx context.Context, roomID string) ([]string, error)
	ClearPending(ctx context.Context, roomID string) error

	UsedKeywords(ctx context.Context, roomID string) ([]string, error)
	AddUsedKeyword(ctx context.Context, roomID, keyword string) error
	ClearUsedKeywords(ctx context.Context, roomID string) error
}

// ScoreStore holds the per-room ordered score set and the AddPoint counter.
type ScoreStore interface {
	IncrScore(ctx context.Context, roomID, username string, delta int64) (int64, error)
	// Scores returns the top n entries by descending score; n <= 0 returns all.
	// The order of equal scores is deterministic but depends on the backend.
	Scores(ctx context.Context, roomID string, n int) ([]models.ScoreEntry, error)
	// Score returns 0 for a username that has no entry.
	Score(ctx context.Context, roomID, username string) (int64, error)
	ClearScores(ctx context.Context, roomID string) error

	// AddPoint returns ok=false when no value has been set for the room.
	AddPoint(ctx context.Context, roomID string) (value int64, ok bool, err error)
	SetAddPoint(ctx context.Context, roomID string, value int64) error
}

// RoundStore holds the active round and its answered-set.
type RoundStore interface {
	GetRound(ctx context.Context, roomID string) (*models.RoundState, error)
	SaveRound(ctx context.Context, round *models.RoundState) error
	DeleteRound(ctx context.Context, roomID string) error

	// MarkAnswered reports whether the username was newly added to the answered-set.
	MarkAnswered(ctx context.Context, roomID, username string) (bool, error)
	Answered(ctx context.Context, roomID string) ([]string, error)
	ClearAnswered(ctx context.Context, roomID string) error
}

// Store is the full ephemeral state adapter.
type Store interface {
	RoomStore
	MemberStore
	RotationStore
	ScoreStore
	RoundStore
	Close() error
}
