package models

// 事件名
const (
	EventMembershipChanged = "roomMembershipChanged"
	EventRoundStarted      = "roundStarted"
	EventKeywordForDrawer  = "keywordForDrawer"
	EventRoundSync         = "roundSync"
	EventHintRevealed      = "hintRevealed"
	EventCorrectGuess      = "correctGuess"
	EventCloseGuess        = "closeGuess"
	EventChatMessage       = "chatMessage"
	EventRoundEnded        = "roundEnded"
	EventGameEnded         = "gameEnded"
	EventGameStopped       = "gameStopped"
	EventError             = "error"
)

// Round end reasons carried by RoundEnded.
const (
	ReasonTimeout     = "timeout"
	ReasonAllAnswered = "all_answered"
	ReasonDrawerLeft  = "drawer_left"
)

// ReasonRoomExpired is the GameStopped reason when the room record is gone mid-game.
const ReasonRoomExpired = "room_expired"

// Outbound event payloads. Keywords only travel in KeywordForDrawer and RoundEnded.

type RoundStarted struct {
	RoomID   string `json:"room_id"`
	Number   int    `json:"number"`
	Drawer   string `json:"drawer"`
	Duration int    `json:"duration"`
	EndTime  int64  `json:"end_time"`
}

// RoundView is the non-secret part of a round, sent to clients joining mid-round.
type RoundView struct {
	RoomID    string   `json:"room_id"`
	Number    int      `json:"number"`
	Drawer    string   `json:"drawer"`
	Duration  int      `json:"duration"`
	EndTime   int64    `json:"end_time"`
	Phase     string   `json:"phase"`
	HintLevel int      `json:"hint_level"`
	Hint      string   `json:"hint,omitempty"`
	Answered  []string `json:"answered"`
}

type KeywordForDrawer struct {
	RoomID  string `json:"room_id"`
	Number  int    `json:"number"`
	Keyword string `json:"keyword"`
}

type HintRevealed struct {
	RoomID string `json:"room_id"`
	Level  int    `json:"level"`
	Hint   string `json:"hint"`
}

type CorrectGuess struct {
	RoomID      string       `json:"room_id"`
	Username    string       `json:"username"`
	Points      int64        `json:"points"`
	Drawer      string       `json:"drawer"`
	DrawerBonus int64        `json:"drawer_bonus"`
	Scores      []ScoreEntry `json:"scores"`
}

type CloseGuess struct {
	RoomID string `json:"room_id"`
	Guess  string `json:"guess"`
}

type ChatMessage struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

type RoundEnded struct {
	RoomID  string       `json:"room_id"`
	Number  int          `json:"number"`
	Keyword string       `json:"keyword"`
	Reason  string       `json:"reason"`
	Scores  []ScoreEntry `json:"scores"`
}

type GameEnded struct {
	RoomID string       `json:"room_id"`
	Podium []ScoreEntry `json:"podium"`
	Scores []ScoreEntry `json:"scores"`
}

type MembershipChanged struct {
	RoomID  string       `json:"room_id"`
	Status  RoomStatus   `json:"status"`
	Count   int          `json:"count"`
	Members []string     `json:"members"`
	Joined  string       `json:"joined,omitempty"`
	Left    string       `json:"left,omitempty"`
	Scores  []ScoreEntry `json:"scores"`
}

type GameStopped struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason"`
}

type ErrorNotice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
