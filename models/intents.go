package models

// Inbound intent payloads decoded from client packets.

type RoomIntent struct {
	RoomID string `json:"room_id"`
}

type GuessIntent struct {
	RoomID string `json:"room_id"`
	Text   string `json:"text"`
}

type HintIntent struct {
	RoomID string `json:"room_id"`
	Level  int    `json:"level"`
}

// CreateRoomRequest describes a new room. Owner is filled from the caller.
type CreateRoomRequest struct {
	Name         string `json:"name"`
	Capacity     int    `json:"max_player"`
	ScoreTarget  int64  `json:"score_target"`
	Private      bool   `json:"private"`
	Owner        string `json:"owner"`
	TopicID      string `json:"topic_id"`
	RoundSeconds int    `json:"round_seconds"`
}
