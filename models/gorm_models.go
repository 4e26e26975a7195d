// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormPlayer 玩家模型
type GormPlayer struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;not null"`
	WordsDrawn   int    `gorm:"default:0"`
	WordsGuessed int    `gorm:"default:0"`
	TotalGuesses int    `gorm:"default:0"`
	FirstPlaces  int    `gorm:"default:0"`
	SecondPlaces int    `gorm:"default:0"`
	ThirdPlaces  int    `gorm:"default:0"`
	Rank         int    `gorm:"default:0;index"`
}

func (GormPlayer) TableName() string { return "players" }

// Profile converts the row to the engine-facing view.
func (p GormPlayer) Profile() PlayerProfile {
	return PlayerProfile{
		Username:     p.Username,
		WordsDrawn:   p.WordsDrawn,
		WordsGuessed: p.WordsGuessed,
		TotalGuesses: p.TotalGuesses,
		FirstPlaces:  p.FirstPlaces,
		SecondPlaces: p.SecondPlaces,
		ThirdPlaces:  p.ThirdPlaces,
		Rank:         p.Rank,
	}
}

// GormTopic 词库主题
type GormTopic struct {
	gorm.Model
	Slug     string        `gorm:"uniqueIndex;not null"`
	Name     string        `gorm:"not null"`
	Keywords []GormKeyword `gorm:"foreignKey:TopicID"`
}

func (GormTopic) TableName() string { return "topics" }

// GormKeyword 词条
type GormKeyword struct {
	gorm.Model
	TopicID uint   `gorm:"index;not null"`
	Word    string `gorm:"not null"`
}

func (GormKeyword) TableName() string { return "keywords" }
