package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/wfunc/sketchparty/config"
	"github.com/wfunc/sketchparty/logger"
	"github.com/wfunc/sketchparty/models"
	"github.com/wfunc/sketchparty/monitor"
	"github.com/wfunc/sketchparty/network"
	"github.com/wfunc/sketchparty/presence"
	"github.com/wfunc/sketchparty/room"
)

var errRateLimited = errors.New("too many guesses")

// Options wires a GameServer.
type Options struct {
	Server     config.ServerConfig
	Game       config.GameConfig
	Controller *room.Controller
	Presence   *presence.Registry
	Monitor    *monitor.Monitor
}

type GameServer struct {
	cfg          config.ServerConfig
	game         config.GameConfig
	controller   *room.Controller
	presence     *presence.Registry
	monitor      *monitor.Monitor
	upgrader     websocket.Upgrader
	httpServer   *http.Server
	shutdownChan chan struct{}

	mutex    sync.Mutex
	closing  bool
	handlers sync.WaitGroup // live websocket read loops
}

func NewGameServer(o Options) *GameServer {
	s := &GameServer{
		cfg:          o.Server,
		game:         o.Game,
		controller:   o.Controller,
		presence:     o.Presence,
		monitor:      o.Monitor,
		shutdownChan: make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}
	s.httpServer = &http.Server{
		Addr:              o.Server.HTTPAddress,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the HTTP handler: the websocket endpoint, the lobby API, metrics and health.
func (s *GameServer) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	r.HandleFunc("/rooms", s.handleListRooms).Methods(http.MethodGet)
	r.HandleFunc("/rooms", s.handleCreateRoom).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{id}", s.handleGetRoom).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{id}/scoreboard", s.handleScoreboard).Methods(http.MethodGet)
	r.Handle("/metrics", s.monitor.Handler())
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	return r
}

func (s *GameServer) Start() error {
	logger.Log.Infof("Game server listening on %s", s.cfg.HTTPAddress)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, closes the open websocket connections and
// waits until their read loops have released their rooms.
// Hijacked connections are not tracked by http.Server, so they are closed here.
func (s *GameServer) Shutdown(ctx context.Context) error {
	s.mutex.Lock()
	if s.closing {
		s.mutex.Unlock()
		return nil
	}
	s.closing = true
	close(s.shutdownChan)
	s.mutex.Unlock()

	err := s.httpServer.Shutdown(ctx)
	for _, sess := range s.presence.Sessions() {
		sess.Close()
	}

	done := make(chan struct{})
	go func() {
		s.handlers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}
	return err
}

// track registers a read loop; it reports false once shutdown has begun.
func (s *GameServer) track() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closing {
		return false
	}
	s.handlers.Add(1)
	return true
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	if !s.track() {
		conn.Close()
		return
	}
	defer s.handlers.Done()
	s.handleConnection(conn, username)
}

func (s *GameServer) handleConnection(conn *websocket.Conn, username string) {
	wsConn := network.NewWSConnection(conn)
	if s.cfg.ReadLimit > 0 {
		wsConn.SetReadLimit(s.cfg.ReadLimit)
	}
	if s.cfg.Heartbeat > 0 {
		wsConn.SetHeartbeat(s.cfg.Heartbeat)
	}

	sess := presence.NewSession(uuid.NewString(), username, wsConn)
	s.presence.Bind(sess)
	s.monitor.IncOnlinePlayers()
	limiter := rate.NewLimiter(rate.Limit(s.game.GuessRate), s.game.GuessBurst)

	logger.Log.Infof("New connection from %s, session ID: %s, user %s", wsConn.RemoteAddr(), sess.ID, username)

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.ID)
		s.controller.Disconnect(context.Background(), sess.ID)
		s.monitor.DecOnlinePlayers()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
		}
		packet, err := wsConn.ReadPacket()
		if err != nil {
			// a malformed frame is reported, the connection stays open
			if errors.Is(err, io.ErrShortBuffer) {
				s.sendError(sess, fmt.Errorf("%w: malformed packet", room.ErrInvalidIntent))
				continue
			}
			return
		}

		start := time.Now()
		s.monitor.IncMessagesReceived()
		if err := s.handlePacket(context.Background(), sess, limiter, packet); err != nil {
			s.sendError(sess, err)
		}
		s.monitor.ObserveMessageLatency(time.Since(start))
	}
}

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", room.ErrInvalidIntent, err)
	}
	return nil
}

func (s *GameServer) handlePacket(ctx context.Context, sess *presence.Session, limiter *rate.Limiter, packet *network.Packet) error {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
		return nil
	case network.MsgTypeCreateRoom:
		return s.handleCreateRoomIntent(ctx, sess, packet)
	case network.MsgTypeJoinRoom:
		var req models.RoomIntent
		if err := decode(packet.Data, &req); err != nil {
			return err
		}
		return s.controller.Join(ctx, sess.ID, req.RoomID)
	case network.MsgTypeLeaveRoom:
		var req models.RoomIntent
		if err := decode(packet.Data, &req); err != nil {
			return err
		}
		return s.controller.Leave(ctx, sess.ID, req.RoomID)
	case network.MsgTypeStartGame:
		var req models.RoomIntent
		if err := decode(packet.Data, &req); err != nil {
			return err
		}
		return s.controller.StartGame(ctx, sess.ID, req.RoomID)
	case network.MsgTypePauseGame:
		var req models.RoomIntent
		if err := decode(packet.Data, &req); err != nil {
			return err
		}
		return s.controller.PauseGame(ctx, sess.ID, req.RoomID)
	case network.MsgTypeSubmitGuess:
		if !limiter.Allow() {
			s.monitor.IncRateLimited()
			return errRateLimited
		}
		var req models.GuessIntent
		if err := decode(packet.Data, &req); err != nil {
			return err
		}
		_, err := s.controller.SubmitGuess(ctx, sess.ID, req.RoomID, req.Text)
		return err
	case network.MsgTypeRequestHint:
		var req models.HintIntent
		if err := decode(packet.Data, &req); err != nil {
			return err
		}
		_, err := s.controller.RequestHint(ctx, sess.ID, req.RoomID, req.Level)
		return err
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		return nil
	}
}

// handleCreateRoomIntent creates a room owned by the session user and joins it.
func (s *GameServer) handleCreateRoomIntent(ctx context.Context, sess *presence.Session, packet *network.Packet) error {
	var req models.CreateRoomRequest
	if err := decode(packet.Data, &req); err != nil {
		return err
	}
	req.Owner = sess.Username
	created, err := s.controller.CreateRoom(ctx, req)
	if err != nil {
		return err
	}
	data, err := json.Marshal(created)
	if err != nil {
		return err
	}
	if err := sess.Send(network.MsgTypeRoomCreated, data); err != nil {
		return err
	}
	return s.controller.Join(ctx, sess.ID, created.ID)
}

func errorCode(err error) string {
	if errors.Is(err, errRateLimited) {
		return "rate_limited"
	}
	return room.ErrorCode(err)
}

func (s *GameServer) sendError(sess *presence.Session, err error) {
	notice := models.ErrorNotice{Code: errorCode(err), Message: err.Error()}
	if notice.Code == "internal" {
		logger.Log.Errorf("session %s: %v", sess.ID, err)
		notice.Message = "internal error"
	}
	data, _ := json.Marshal(notice)
	if err := sess.Send(network.MsgTypeError, data); err != nil {
		logger.Log.Warnf("session %s: send error notice: %v", sess.ID, err)
	}
}
