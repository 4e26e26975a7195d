package rpc

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"time"

	"github.com/wfunc/sketchparty/logger"
	"github.com/wfunc/sketchparty/models"
	"github.com/wfunc/sketchparty/services"
)

const callTimeout = 5 * time.Second

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer listens on addr. Services are added with Register before Start.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      rpc.NewServer(),
	}, nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() string { return s.address }

func (s *Server) Register(service any) error {
	return s.rpc.Register(service)
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// Scoreboards reads live room standings; room.Controller satisfies it.
type Scoreboards interface {
	Scoreboard(ctx context.Context, roomID string) ([]models.ScoreEntry, error)
}

// GameService is the struct that exposes RPC methods.
type GameService struct {
	playerService *services.PlayerService
	rooms         Scoreboards
}

func NewGameService(ps *services.PlayerService, rooms Scoreboards) *GameService {
	return &GameService{playerService: ps, rooms: rooms}
}

// net/rpc signature: exported method, exported arguments,
// pointer reply, error return.
type GetPlayerArgs struct {
	Username string
}

type GetPlayerReply struct {
	Player models.PlayerProfile
}

func (gs *GameService) GetPlayerStats(args *GetPlayerArgs, reply *GetPlayerReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	p, err := gs.playerService.GetPlayerWithStats(ctx, args.Username)
	if err != nil {
		return err
	}
	reply.Player = *p
	return nil
}

type ScoreboardArgs struct {
	RoomID string
}

type ScoreboardReply struct {
	Scores []models.ScoreEntry
}

func (gs *GameService) RoomScoreboard(args *ScoreboardArgs, reply *ScoreboardReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	scores, err := gs.rooms.Scoreboard(ctx, args.RoomID)
	if err != nil {
		return err
	}
	reply.Scores = scores
	return nil
}

type RoomPlayersReply struct {
	Players []models.PlayerProfile
}

// RoomPlayers returns the stored profiles of the room's current members.
func (gs *GameService) RoomPlayers(args *ScoreboardArgs, reply *RoomPlayersReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	scores, err := gs.rooms.Scoreboard(ctx, args.RoomID)
	if err != nil {
		return err
	}
	members := make([]string, len(scores))
	for i, s := range scores {
		members[i] = s.Username
	}
	players, err := gs.playerService.PlayersInRoom(ctx, members)
	if err != nil {
		return err
	}
	reply.Players = players
	return nil
}
