// persistence/interface.go
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/wfunc/sketchparty/models"
)

// PlayerStore 玩家统计与题库
type PlayerStore interface {
	IncrementWordsDrawn(ctx context.Context, username string) error
	IncrementWordsGuessed(ctx context.Context, username string) error
	IncrementTotalGuesses(ctx context.Context, username string) error
	// UpdateAchievement adds one podium finish at place 1, 2 or 3.
	UpdateAchievement(ctx context.Context, username string, place int) error
	// UpdatePlayerRank recomputes the global rank of every player.
	UpdatePlayerRank(ctx context.Context) error
	GetPlayer(ctx context.Context, username string) (*models.PlayerProfile, error)
	// PlayersByUsernames skips usernames that have no record.
	PlayersByUsernames(ctx context.Context, usernames []string) ([]models.PlayerProfile, error)
	// KeywordsForTopic returns nil and no error for an unknown topic.
	KeywordsForTopic(ctx context.Context, topicID string) ([]string, error)
	// SaveTopic creates the topic or replaces its keyword pool.
	SaveTopic(ctx context.Context, slug, name string, keywords []string) error
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrInvalidPlace   = errors.New("podium place must be 1, 2 or 3")
)

func checkPlace(place int) error {
	if place < 1 || place > 3 {
		return fmt.Errorf("%w: got %d", ErrInvalidPlace, place)
	}
	return nil
}

// placeColumn names the counter column of a podium place.
func placeColumn(place int) string {
	switch place {
	case 1:
		return "first_places"
	case 2:
		return "second_places"
	default:
		return "third_places"
	}
}

// rankOrder is the ordering behind UpdatePlayerRank.
const rankOrder = "first_places DESC, second_places DESC, third_places DESC, words_guessed DESC, username ASC"
