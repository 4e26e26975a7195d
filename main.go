package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/sketchparty/broadcast"
	"github.com/wfunc/sketchparty/config"
	"github.com/wfunc/sketchparty/logger"
	"github.com/wfunc/sketchparty/monitor"
	"github.com/wfunc/sketchparty/persistence"
	"github.com/wfunc/sketchparty/presence"
	"github.com/wfunc/sketchparty/room"
	"github.com/wfunc/sketchparty/rpc"
	"github.com/wfunc/sketchparty/server"
	"github.com/wfunc/sketchparty/services"
	"github.com/wfunc/sketchparty/store"
)

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Redis.Addr == "" {
		logger.Log.Warn("redis.addr is empty, using the in-memory room store")
		return store.NewMemoryStore(cfg.Redis.RoomTTL), nil
	}
	return store.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
		cfg.Redis.RoomTTL, cfg.Game.DefaultRoundSeconds)
}

func openPlayerStore(cfg config.DatabaseConfig) (persistence.PlayerStore, error) {
	pg := cfg.Postgres
	switch cfg.Driver {
	case "gorm":
		return persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "pq":
		return persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "memory":
		return persistence.NewMemoryPlayerStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		_ = logger.Init("info", false)
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rooms, err := openStore(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("Failed to open room store: %v", err)
	}
	defer rooms.Close()

	db, err := openPlayerStore(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Log.Infof("Database connection successful (%s).", cfg.Database.Driver)

	if err := persistence.SeedDefaultTopic(ctx, db, cfg.Game.DefaultTopic); err != nil {
		logger.Log.Fatalf("Failed to seed default topic: %v", err)
	}

	mon := monitor.NewMonitor("sketchparty")
	players := services.NewPlayerService(db)
	registry := presence.NewRegistry(rooms)

	controller := room.NewController(room.Options{
		Config:   cfg.Game,
		Store:    rooms,
		Presence: registry,
		Gateway:  broadcast.NewHub(registry),
		Players:  db,
		Podium:   players,
		Metrics:  mon.Metrics(),
	})
	defer controller.Close()

	// 初始化RPC服务器
	rpcServer, err := rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	if err := rpcServer.Register(rpc.NewGameService(players, controller)); err != nil {
		logger.Log.Fatalf("Failed to register RPC service: %v", err)
	}
	go rpcServer.Start()
	defer rpcServer.Stop()

	health, err := rpc.NewHealthServer(cfg.Server.HealthAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create health server: %v", err)
	}
	go func() {
		if err := health.Start(); err != nil {
			logger.Log.Errorf("health server: %v", err)
		}
	}()
	defer health.Stop()

	gameServer := server.NewGameServer(server.Options{
		Server:     cfg.Server,
		Game:       cfg.Game,
		Controller: controller,
		Presence:   registry,
		Monitor:    mon,
	})

	errc := make(chan error, 1)
	go func() { errc <- gameServer.Start() }()
	health.SetServing(true)

	select {
	case err := <-errc:
		if err != nil {
			logger.Log.Errorf("Game server stopped: %v", err)
		}
	case <-ctx.Done():
		logger.Log.Info("Shutting down.")
	}
	health.SetServing(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := gameServer.Shutdown(shutdownCtx); err != nil {
		logger.Log.Warnf("Game server shutdown: %v", err)
	}
}
