// services/player_service.go
package services

import (
	"context"
	"errors"

	"github.com/wfunc/sketchparty/logger"
	"github.com/wfunc/sketchparty/models"
	"github.com/wfunc/sketchparty/persistence"
)

type PlayerService struct {
	db persistence.PlayerStore
}

func NewPlayerService(db persistence.PlayerStore) *PlayerService {
	return &PlayerService{db: db}
}

// AwardPodium 记录前三名并重新计算全局排名
// podium is ordered best first; entries past the third are ignored.
func (s *PlayerService) AwardPodium(ctx context.Context, podium []models.ScoreEntry) error {
	var errs []error
	for i, entry := range podium {
		if i >= 3 {
			break
		}
		if err := s.db.UpdateAchievement(ctx, entry.Username, i+1); err != nil {
			logger.Log.Warnf("podium: place %d for %s: %v", i+1, entry.Username, err)
			errs = append(errs, err)
		}
	}
	if err := s.db.UpdatePlayerRank(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// GetPlayerWithStats 获取玩家信息和统计
func (s *PlayerService) GetPlayerWithStats(ctx context.Context, username string) (*models.PlayerProfile, error) {
	return s.db.GetPlayer(ctx, username)
}

// PlayersInRoom returns the stored profiles of the given members, skipping players without one.
func (s *PlayerService) PlayersInRoom(ctx context.Context, members []string) ([]models.PlayerProfile, error) {
	return s.db.PlayersByUsernames(ctx, members)
}
