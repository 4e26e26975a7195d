package room

import (
	"context"

	"github.com/wfunc/sketchparty/models"
)

// Broadcaster delivers outbound events. It is defined here to keep room free of the
// broadcast package; broadcast.Hub satisfies it.
type Broadcaster interface {
	EmitToRoom(roomID, event string, payload any) error
	EmitToConnection(connID, event string, payload any) error
	EmitToUser(roomID, username, event string, payload any) error
}

// PlayerStore is the persistent side the engine writes statistics to and reads keywords from.
type PlayerStore interface {
	IncrementWordsDrawn(ctx context.Context, username string) error
	IncrementWordsGuessed(ctx context.Context, username string) error
	IncrementTotalGuesses(ctx context.Context, username string) error
	KeywordsForTopic(ctx context.Context, topicID string) ([]string, error)
}

// Podium persists the final top-3 of a game.
type Podium interface {
	AwardPodium(ctx context.Context, podium []models.ScoreEntry) error
}

// Metrics receives engine counters; monitor.Metrics satisfies it.
type Metrics interface {
	ObserveGuess(result string)
	ObserveRoundEnd(reason string)
	IncGamesCompleted()
	SetActiveRooms(n int)
}
