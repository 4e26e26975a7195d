package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig without a file should use defaults, got: %v", err)
	}
	if cfg.Server.HTTPAddress != ":8080" {
		t.Errorf("Expected default http address :8080, got %s", cfg.Server.HTTPAddress)
	}
	if cfg.Game.EarlyEndGrace != 3*time.Second {
		t.Errorf("Expected early end grace 3s, got %v", cfg.Game.EarlyEndGrace)
	}
	if cfg.Game.RevealDelay != 5*time.Second {
		t.Errorf("Expected reveal delay 5s, got %v", cfg.Game.RevealDelay)
	}
	if cfg.Redis.RoomTTL != 2*time.Hour {
		t.Errorf("Expected room ttl 2h, got %v", cfg.Redis.RoomTTL)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  http_address: ":7000"
game:
  reveal_delay: 7s
  drawer_bonus: 5
database:
  driver: memory
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SKETCH_REDIS_ADDR", "redis.internal:6380")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.HTTPAddress != ":7000" {
		t.Errorf("Expected :7000 from file, got %s", cfg.Server.HTTPAddress)
	}
	if cfg.Game.RevealDelay != 7*time.Second {
		t.Errorf("Expected reveal delay 7s from file, got %v", cfg.Game.RevealDelay)
	}
	if cfg.Game.DrawerBonus != 5 {
		t.Errorf("Expected drawer bonus 5, got %d", cfg.Game.DrawerBonus)
	}
	if cfg.Game.AddPointCeiling != DefaultGame().AddPointCeiling {
		t.Errorf("Expected default ceiling to survive a partial file, got %d", cfg.Game.AddPointCeiling)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("Expected driver memory, got %s", cfg.Database.Driver)
	}
	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Errorf("Expected redis addr from env, got %s", cfg.Redis.Addr)
	}
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SKETCH_LOG_LEVEL=debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("SKETCH_LOG_LEVEL") })

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level from .env, got %s", cfg.Log.Level)
	}
}
