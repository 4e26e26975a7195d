// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq" // PostgreSQL 驱动

	"github.com/wfunc/sketchparty/models"
)

const queryTimeout = 5 * time.Second

// PostgreSQL 数据库实现
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
	return OpenPostgreSQL(connStr)
}

// OpenPostgreSQL connects with a ready connection string and creates missing tables.
func OpenPostgreSQL(connStr string) (*PostgreSQL, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS players (
            id SERIAL PRIMARY KEY,
            username VARCHAR(255) UNIQUE NOT NULL,
            words_drawn INTEGER NOT NULL DEFAULT 0,
            words_guessed INTEGER NOT NULL DEFAULT 0,
            total_guesses INTEGER NOT NULL DEFAULT 0,
            first_places INTEGER NOT NULL DEFAULT 0,
            second_places INTEGER NOT NULL DEFAULT 0,
            third_places INTEGER NOT NULL DEFAULT 0,
            rank INTEGER NOT NULL DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS topics (
            id SERIAL PRIMARY KEY,
            slug VARCHAR(255) UNIQUE NOT NULL,
            name VARCHAR(255) NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS keywords (
            id SERIAL PRIMARY KEY,
            topic_id INTEGER NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
            word VARCHAR(255) NOT NULL
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS idx_keywords_topic_id ON keywords(topic_id);
        CREATE INDEX IF NOT EXISTS idx_players_rank ON players(rank);
    `)
	return err
}

// increment upserts the player row; column is one of the fixed counter names.
func (p *PostgreSQL) increment(ctx context.Context, username, column string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := fmt.Sprintf(`
        INSERT INTO players (username, %[1]s)
        VALUES ($1, 1)
        ON CONFLICT (username)
        DO UPDATE SET %[1]s = players.%[1]s + 1, updated_at = CURRENT_TIMESTAMP
    `, column)
	_, err := p.db.ExecContext(ctx, query, username)
	return err
}

func (p *PostgreSQL) IncrementWordsDrawn(ctx context.Context, username string) error {
	return p.increment(ctx, username, "words_drawn")
}

func (p *PostgreSQL) IncrementWordsGuessed(ctx context.Context, username string) error {
	return p.increment(ctx, username, "words_guessed")
}

func (p *PostgreSQL) IncrementTotalGuesses(ctx context.Context, username string) error {
	return p.increment(ctx, username, "total_guesses")
}

func (p *PostgreSQL) UpdateAchievement(ctx context.Context, username string, place int) error {
	if err := checkPlace(place); err != nil {
		return err
	}
	return p.increment(ctx, username, placeColumn(place))
}

func (p *PostgreSQL) UpdatePlayerRank(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := p.db.ExecContext(ctx, `
        UPDATE players SET rank = ranked.rn
        FROM (SELECT id, ROW_NUMBER() OVER (ORDER BY `+rankOrder+`) AS rn FROM players) AS ranked
        WHERE players.id = ranked.id`)
	return err
}

const playerColumns = `username, words_drawn, words_guessed, total_guesses, first_places, second_places, third_places, rank`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (models.PlayerProfile, error) {
	var p models.PlayerProfile
	err := row.Scan(&p.Username, &p.WordsDrawn, &p.WordsGuessed, &p.TotalGuesses,
		&p.FirstPlaces, &p.SecondPlaces, &p.ThirdPlaces, &p.Rank)
	return p, err
}

func (p *PostgreSQL) GetPlayer(ctx context.Context, username string) (*models.PlayerProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := p.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE username = $1`, username)
	profile, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (p *PostgreSQL) PlayersByUsernames(ctx context.Context, usernames []string) ([]models.PlayerProfile, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE username = ANY($1) ORDER BY username`,
		pq.Array(usernames))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PlayerProfile
	for rows.Next() {
		profile, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, profile)
	}
	return out, rows.Err()
}

func (p *PostgreSQL) KeywordsForTopic(ctx context.Context, topicID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `
        SELECT k.word FROM keywords k
        JOIN topics t ON t.id = k.topic_id
        WHERE t.slug = $1
        ORDER BY k.id`, topicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

func (p *PostgreSQL) SaveTopic(ctx context.Context, slug, name string, keywords []string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var topicID int64
	err = tx.QueryRowContext(ctx, `
        INSERT INTO topics (slug, name) VALUES ($1, $2)
        ON CONFLICT (slug) DO UPDATE SET name = $2, updated_at = CURRENT_TIMESTAMP
        RETURNING id`, slug, name).Scan(&topicID)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM keywords WHERE topic_id = $1`, topicID); err != nil {
		return err
	}
	for _, w := range keywords {
		if _, err := tx.ExecContext(ctx, `INSERT INTO keywords (topic_id, word) VALUES ($1, $2)`, topicID, w); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
