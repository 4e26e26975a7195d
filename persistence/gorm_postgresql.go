// persistence/gorm_postgresql.go
package persistence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/wfunc/sketchparty/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
	return OpenGormPostgreSQL(dsn)
}

// OpenGormPostgreSQL connects with a ready DSN and migrates the schema.
func OpenGormPostgreSQL(dsn string) (*GormPostgreSQL, error) {
	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := autoMigrate(db); err != nil {
		return nil, err
	}
	return &GormPostgreSQL{db: db}, nil
}

// autoMigrate 自动迁移表结构
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GormPlayer{},
		&models.GormTopic{},
		&models.GormKeyword{},
	)
}

// increment upserts the player row and adds one to column.
func (p *GormPostgreSQL) increment(ctx context.Context, username, column string) error {
	row := models.GormPlayer{Username: username}
	switch column {
	case "words_drawn":
		row.WordsDrawn = 1
	case "words_guessed":
		row.WordsGuessed = 1
	case "total_guesses":
		row.TotalGuesses = 1
	case "first_places":
		row.FirstPlaces = 1
	case "second_places":
		row.SecondPlaces = 1
	case "third_places":
		row.ThirdPlaces = 1
	}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "username"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			column:       gorm.Expr("players." + column + " + 1"),
			"updated_at": time.Now(),
		}),
	}).Create(&row).Error
}

func (p *GormPostgreSQL) IncrementWordsDrawn(ctx context.Context, username string) error {
	return p.increment(ctx, username, "words_drawn")
}

func (p *GormPostgreSQL) IncrementWordsGuessed(ctx context.Context, username string) error {
	return p.increment(ctx, username, "words_guessed")
}

func (p *GormPostgreSQL) IncrementTotalGuesses(ctx context.Context, username string) error {
	return p.increment(ctx, username, "total_guesses")
}

func (p *GormPostgreSQL) UpdateAchievement(ctx context.Context, username string, place int) error {
	if err := checkPlace(place); err != nil {
		return err
	}
	return p.increment(ctx, username, placeColumn(place))
}

func (p *GormPostgreSQL) UpdatePlayerRank(ctx context.Context) error {
	return p.db.WithContext(ctx).Exec(`
        UPDATE players SET rank = ranked.rn
        FROM (SELECT id, ROW_NUMBER() OVER (ORDER BY ` + rankOrder + `) AS rn FROM players) AS ranked
        WHERE players.id = ranked.id`).Error
}

func (p *GormPostgreSQL) GetPlayer(ctx context.Context, username string) (*models.PlayerProfile, error) {
	var row models.GormPlayer
	if err := p.db.WithContext(ctx).Where("username = ?", username).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	profile := row.Profile()
	return &profile, nil
}

func (p *GormPostgreSQL) PlayersByUsernames(ctx context.Context, usernames []string) ([]models.PlayerProfile, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	var rows []models.GormPlayer
	if err := p.db.WithContext(ctx).Where("username IN ?", usernames).Order("username").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.PlayerProfile, len(rows))
	for i, r := range rows {
		out[i] = r.Profile()
	}
	return out, nil
}

func (p *GormPostgreSQL) KeywordsForTopic(ctx context.Context, topicID string) ([]string, error) {
	var topic models.GormTopic
	err := p.db.WithContext(ctx).
		Preload("Keywords", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("slug = ?", topicID).
		First(&topic).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	words := make([]string, len(topic.Keywords))
	for i, k := range topic.Keywords {
		words[i] = k.Word
	}
	return words, nil
}

func (p *GormPostgreSQL) SaveTopic(ctx context.Context, slug, name string, keywords []string) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var topic models.GormTopic
		if err := tx.Where(models.GormTopic{Slug: slug}).Attrs(models.GormTopic{Name: name}).FirstOrCreate(&topic).Error; err != nil {
			return err
		}
		if topic.Name != name {
			if err := tx.Model(&topic).Update("name", name).Error; err != nil {
				return err
			}
		}
		if err := tx.Unscoped().Where("topic_id = ?", topic.ID).Delete(&models.GormKeyword{}).Error; err != nil {
			return err
		}
		if len(keywords) == 0 {
			return nil
		}
		rows := make([]models.GormKeyword, len(keywords))
		for i, w := range keywords {
			rows[i] = models.GormKeyword{TopicID: topic.ID, Word: w}
		}
		return tx.Create(&rows).Error
	})
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
