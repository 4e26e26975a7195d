// models/models.go
package models

import (
	"encoding/json"
	"time"
)

// RoomVersion is the current schema version of persisted room records.
const RoomVersion = 1

// RoomStatus is the lifecycle status of a room.
type RoomStatus string

const (
	StatusWaiting RoomStatus = "waiting"
	StatusPlaying RoomStatus = "playing"
)

// Room 房间元数据
type Room struct {
	Version        int        `json:"v"`
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Capacity       int        `json:"max_player"`
	ScoreTarget    int64      `json:"score_target"`
	Private        bool       `json:"private"`
	Owner          string     `json:"owner"`
	TopicID        string     `json:"topic_id"`
	Status         RoomStatus `json:"status"`
	CurrentPlayers int        `json:"current_players"`
	RoundSeconds   int        `json:"round_seconds"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// RoundDuration returns the configured drawing time of one round.
func (r *Room) RoundDuration() time.Duration {
	return time.Duration(r.RoundSeconds) * time.Second
}

// DecodeRoom parses a stored room record and upgrades older versions in place.
// defaultRoundSeconds fills records written before round_seconds existed.
func DecodeRoom(data []byte, defaultRoundSeconds int) (*Room, error) {
	var room Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	if room.Version < 1 {
		if room.RoundSeconds <= 0 {
			room.RoundSeconds = defaultRoundSeconds
		}
		if room.Status == "" {
			room.Status = StatusWaiting
		}
		room.Version = 1
	}
	return &room, nil
}

// RoundState is the active round of a room. The answered-set is stored beside it.
type RoundState struct {
	RoomID    string    `json:"room_id"`
	Number    int       `json:"number"`
	Drawer    string    `json:"drawer"`
	Keyword   string    `json:"keyword"`
	Duration  int       `json:"duration"`
	StartedAt time.Time `json:"started_at"`
	EndTime   time.Time `json:"end_time"`
	Phase     string    `json:"phase"`
	HintLevel int       `json:"hint_level"`
	Revealed  bool      `json:"revealed"`
}

// ScoreEntry is one row of a room scoreboard.
type ScoreEntry struct {
	Username string `json:"username"`
	Score    int64  `json:"score"`
}

// PlayerProfile 玩家累计数据
type PlayerProfile struct {
	Username     string `json:"username"`
	WordsDrawn   int    `json:"words_drawn"`
	WordsGuessed int    `json:"words_guessed"`
	TotalGuesses int    `json:"total_guesses"`
	FirstPlaces  int    `json:"first_places"`
	SecondPlaces int    `json:"second_places"`
	ThirdPlaces  int    `json:"third_places"`
	Rank         int    `json:"rank"`
}
