package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	HTTPAddress   string        `mapstructure:"http_address"`
	RPCAddress    string        `mapstructure:"rpc_address"`
	HealthAddress string        `mapstructure:"health_address"`
	ReadLimit     int64         `mapstructure:"read_limit"`
	Heartbeat     time.Duration `mapstructure:"heartbeat"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	RoomTTL  time.Duration `mapstructure:"room_ttl"`
}

type DatabaseConfig struct {
	// Driver selects the player/topic store: "gorm", "pq" or "memory".
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// GameConfig holds the tunables of the round engine.
type GameConfig struct {
	DeadlineGrace       time.Duration `mapstructure:"deadline_grace"`
	EarlyEndGrace       time.Duration `mapstructure:"early_end_grace"`
	RevealDelay         time.Duration `mapstructure:"reveal_delay"`
	AddPointCeiling     int64         `mapstructure:"add_point_ceiling"`
	AddPointFloor       int64         `mapstructure:"add_point_floor"`
	AddPointStep        int64         `mapstructure:"add_point_step"`
	DrawerBonus         int64         `mapstructure:"drawer_bonus"`
	DefaultRoundSeconds int           `mapstructure:"default_round_seconds"`
	ShortKeywordLen     int           `mapstructure:"short_keyword_len"`
	MinPlayers          int           `mapstructure:"min_players"`
	GuessRate           float64       `mapstructure:"guess_rate"`
	GuessBurst          int           `mapstructure:"guess_burst"`
	DefaultTopic        string        `mapstructure:"default_topic"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// DefaultGame returns the engine defaults; the two delays are the 3s/5s display pauses.
func DefaultGame() GameConfig {
	return GameConfig{
		DeadlineGrace:       2 * time.Second,
		EarlyEndGrace:       3 * time.Second,
		RevealDelay:         5 * time.Second,
		AddPointCeiling:     10,
		AddPointFloor:       2,
		AddPointStep:        1,
		DrawerBonus:         2,
		DefaultRoundSeconds: 80,
		ShortKeywordLen:     5,
		MinPlayers:          2,
		GuessRate:           4,
		GuessBurst:          8,
		DefaultTopic:        "default",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":9090")
	v.SetDefault("server.health_address", ":9091")
	v.SetDefault("server.read_limit", 4096)
	v.SetDefault("server.heartbeat", "30s")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.room_ttl", "2h")

	v.SetDefault("database.driver", "gorm")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.dbname", "sketchparty")

	g := DefaultGame()
	v.SetDefault("game.deadline_grace", g.DeadlineGrace)
	v.SetDefault("game.early_end_grace", g.EarlyEndGrace)
	v.SetDefault("game.reveal_delay", g.RevealDelay)
	v.SetDefault("game.add_point_ceiling", g.AddPointCeiling)
	v.SetDefault("game.add_point_floor", g.AddPointFloor)
	v.SetDefault("game.add_point_step", g.AddPointStep)
	v.SetDefault("game.drawer_bonus", g.DrawerBonus)
	v.SetDefault("game.default_round_seconds", g.DefaultRoundSeconds)
	v.SetDefault("game.short_keyword_len", g.ShortKeywordLen)
	v.SetDefault("game.min_players", g.MinPlayers)
	v.SetDefault("game.guess_rate", g.GuessRate)
	v.SetDefault("game.guess_burst", g.GuessBurst)
	v.SetDefault("game.default_topic", g.DefaultTopic)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// LoadConfig reads path/.env (optional), path/config.yaml (optional) and SKETCH_* environment variables.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SKETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
