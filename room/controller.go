// room/controller.go
package room

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wfunc/sketchparty/config"
	"github.com/wfunc/sketchparty/logger"
	"github.com/wfunc/sketchparty/models"
	"github.com/wfunc/sketchparty/presence"
	"github.com/wfunc/sketchparty/rotation"
	"github.com/wfunc/sketchparty/round"
	"github.com/wfunc/sketchparty/scoreboard"
	"github.com/wfunc/sketchparty/store"
	"github.com/wfunc/sketchparty/timer"
)

// Options wires a Controller. Store, Presence, Gateway and Players are required.
type Options struct {
	Config    config.GameConfig
	Store     store.Store
	Presence  *presence.Registry
	Gateway   Broadcaster
	Players   PlayerStore
	Podium    Podium
	Metrics   Metrics
	Now       func() time.Time
	Rand      func(n int) int
	TimerTick time.Duration
}

// Controller is the entry point for every client intent. All work for one room runs on
// that room's actor, timer fires included, so room state never interleaves.
type Controller struct {
	cfg      config.GameConfig
	store    store.Store
	presence *presence.Registry
	gateway  Broadcaster
	rotation *rotation.Rotation
	scores   *scoreboard.Scoreboard
	engine   *round.Engine
	actors   *Manager
	timers   *timer.Registry
	now      func() time.Time
}

func NewController(o Options) *Controller {
	if o.Now == nil {
		o.Now = time.Now
	}
	var onChange func(int)
	if o.Metrics != nil {
		onChange = o.Metrics.SetActiveRooms
	}

	c := &Controller{
		cfg:      o.Config,
		store:    o.Store,
		presence: o.Presence,
		gateway:  o.Gateway,
		now:      o.Now,
		actors:   NewRoomManager(onChange),
	}
	var timerOpts []timer.Option
	if o.TimerTick > 0 {
		timerOpts = append(timerOpts, timer.WithTick(o.TimerTick))
	}
	c.timers = timer.NewRegistry(c.actors.Post, timerOpts...)

	c.rotation = rotation.New(o.Store, o.Store)
	if o.Rand != nil {
		c.rotation.SetRand(o.Rand)
	}
	c.scores = scoreboard.New(o.Store, scoreboard.Rules{
		Ceiling:     o.Config.AddPointCeiling,
		Floor:       o.Config.AddPointFloor,
		Step:        o.Config.AddPointStep,
		DrawerBonus: o.Config.DrawerBonus,
	})

	deps := round.Deps{
		Rooms:     o.Store,
		Members:   o.Store,
		Rounds:    o.Store,
		Rotation:  c.rotation,
		Scores:    c.scores,
		Players:   o.Players,
		Keywords:  o.Players,
		Gateway:   o.Gateway,
		Scheduler: c.timers,
		Now:       o.Now,
		Config:    o.Config,
	}
	if o.Podium != nil {
		deps.Podium = o.Podium
	}
	if o.Metrics != nil {
		deps.Metrics = o.Metrics
	}
	c.engine = round.NewEngine(deps)
	return c
}

// CreateRoom validates and stores a new room owned by req.Owner.
func (c *Controller) CreateRoom(ctx context.Context, req models.CreateRoomRequest) (*models.Room, error) {
	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.Name == "", req.Owner == "":
		return nil, fmt.Errorf("%w: name and owner are required", ErrInvalidIntent)
	case req.Capacity < c.cfg.MinPlayers:
		return nil, fmt.Errorf("%w: capacity must be at least %d", ErrInvalidIntent, c.cfg.MinPlayers)
	case req.ScoreTarget <= 0:
		return nil, fmt.Errorf("%w: score target must be positive", ErrInvalidIntent)
	case req.RoundSeconds < 0:
		return nil, fmt.Errorf("%w: round seconds must not be negative", ErrInvalidIntent)
	}
	if req.RoundSeconds == 0 {
		req.RoundSeconds = c.cfg.DefaultRoundSeconds
	}
	if req.TopicID == "" {
		req.TopicID = c.cfg.DefaultTopic
	}

	now := c.now()
	room := &models.Room{
		Version:      models.RoomVersion,
		ID:           uuid.NewString(),
		Name:         req.Name,
		Capacity:     req.Capacity,
		ScoreTarget:  req.ScoreTarget,
		Private:      req.Private,
		Owner:        req.Owner,
		TopicID:      req.TopicID,
		Status:       models.StatusWaiting,
		RoundSeconds: req.RoundSeconds,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := c.store.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	logger.Log.Infof("room %s created by %s", room.ID, room.Owner)
	return room, nil
}

// Join adds the connection to the room. A connection arriving mid-round is synced
// with the non-secret round view.
func (c *Controller) Join(ctx context.Context, connID, roomID string) error {
	return c.do(roomID, func() error {
		sess, room, err := c.load(ctx, connID, roomID)
		if err != nil {
			return err
		}
		already, err := c.presence.IsMember(ctx, roomID, sess.Username)
		if err != nil {
			return err
		}
		if !already {
			count, err := c.presence.Count(ctx, roomID)
			if err != nil {
				return err
			}
			if count >= int64(room.Capacity) {
				return ErrRoomFull
			}
		}

		count, err := c.presence.Join(ctx, connID, roomID)
		if err != nil {
			return err
		}
		room.CurrentPlayers = int(count)
		if err := c.saveRoom(ctx, room); err != nil {
			return err
		}

		logger.Log.Infof("room %s: %s joined (%d/%d)", roomID, sess.Username, count, room.Capacity)
		c.membershipChanged(ctx, room, sess.Username, "")
		if room.Status == models.StatusPlaying {
			return c.engine.SyncConnection(ctx, roomID, connID, sess.Username)
		}
		return nil
	})
}

// Leave removes the connection from the room and stops the game when too few remain.
// An emptied idle room gives up its actor and timers.
func (c *Controller) Leave(ctx context.Context, connID, roomID string) error {
	var emptied bool
	err := c.do(roomID, func() error {
		var err error
		emptied, err = c.leave(ctx, connID, roomID)
		return err
	})
	if err == nil && emptied {
		c.actors.Remove(roomID)
		c.timers.Forget(roomID)
	}
	return err
}

func (c *Controller) leave(ctx context.Context, connID, roomID string) (bool, error) {
	sess, ok := c.presence.Session(connID)
	if !ok {
		return false, presence.ErrUnknownConnection
	}
	if !sess.InRoom(roomID) {
		return false, ErrNotMember
	}

	count, removed, err := c.presence.Leave(ctx, connID, roomID)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}
	if err := c.rotation.RemoveDrawer(ctx, roomID, sess.Username); err != nil {
		return false, err
	}

	room, err := c.store.GetRoom(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		return count == 0, nil
	}
	if err != nil {
		return false, err
	}
	room.CurrentPlayers = int(count)
	logger.Log.Infof("room %s: %s left (%d/%d)", roomID, sess.Username, count, room.Capacity)

	if room.Status == models.StatusPlaying {
		if count < int64(c.cfg.MinPlayers) {
			if err := c.engine.Stop(ctx, room, "not_enough_players"); err != nil {
				return false, err
			}
		} else if err := c.engine.HandleLeave(ctx, roomID, sess.Username); err != nil {
			return false, err
		}
	}
	if err := c.saveRoom(ctx, room); err != nil {
		return false, err
	}
	c.membershipChanged(ctx, room, "", sess.Username)
	return count == 0 && room.Status != models.StatusPlaying, nil
}

// Disconnect leaves every room the connection joined and forgets it.
func (c *Controller) Disconnect(ctx context.Context, connID string) {
	for _, roomID := range c.presence.RoomsOf(connID) {
		if err := c.Leave(ctx, connID, roomID); err != nil {
			logger.Log.Warnf("room %s: disconnect %s: %v", roomID, connID, err)
		}
	}
	c.presence.Unbind(connID)
}

// StartGame is host-only and needs at least MinPlayers members.
func (c *Controller) StartGame(ctx context.Context, connID, roomID string) error {
	return c.do(roomID, func() error {
		sess, room, err := c.loadMember(ctx, connID, roomID)
		if err != nil {
			return err
		}
		if sess.Username != room.Owner {
			return ErrNotHost
		}
		if room.Status == models.StatusPlaying {
			return ErrAlreadyPlaying
		}
		count, err := c.presence.Count(ctx, roomID)
		if err != nil {
			return err
		}
		if count < int64(c.cfg.MinPlayers) {
			return ErrNotEnoughPlayers
		}

		if err := c.engine.Abort(ctx, roomID); err != nil {
			return err
		}
		if err := c.scores.Reset(ctx, roomID); err != nil {
			return err
		}
		if err := c.scores.ResetAddPoint(ctx, roomID); err != nil {
			return err
		}
		if err := c.rotation.Reseed(ctx, roomID); err != nil {
			return err
		}
		room.Status = models.StatusPlaying
		room.CurrentPlayers = int(count)
		if err := c.saveRoom(ctx, room); err != nil {
			return err
		}

		if err := c.engine.Start(ctx, room); err != nil {
			room.Status = models.StatusWaiting
			if serr := c.saveRoom(ctx, room); serr != nil {
				logger.Log.Errorf("room %s: revert status: %v", roomID, serr)
			}
			return err
		}
		logger.Log.Infof("room %s: game started by %s", roomID, sess.Username)
		c.membershipChanged(ctx, room, "", "")
		return nil
	})
}

// PauseGame is host-only; it stops the game but keeps the scores.
func (c *Controller) PauseGame(ctx context.Context, connID, roomID string) error {
	return c.do(roomID, func() error {
		sess, room, err := c.loadMember(ctx, connID, roomID)
		if err != nil {
			return err
		}
		if sess.Username != room.Owner {
			return ErrNotHost
		}
		if room.Status != models.StatusPlaying {
			return ErrNotPlaying
		}
		return c.engine.Stop(ctx, room, "paused")
	})
}

func (c *Controller) SubmitGuess(ctx context.Context, connID, roomID, text string) (round.GuessResult, error) {
	result := round.GuessIgnored
	err := c.do(roomID, func() error {
		sess, room, err := c.loadMember(ctx, connID, roomID)
		if err != nil {
			return err
		}
		if room.Status != models.StatusPlaying {
			return ErrNotPlaying
		}
		result, err = c.engine.SubmitGuess(ctx, roomID, sess.Username, text)
		return err
	})
	return result, err
}

func (c *Controller) RequestHint(ctx context.Context, connID, roomID string, level int) (string, error) {
	var hint string
	err := c.do(roomID, func() error {
		sess, _, err := c.loadMember(ctx, connID, roomID)
		if err != nil {
			return err
		}
		hint, err = c.engine.RequestHint(ctx, roomID, sess.Username, level)
		return err
	})
	return hint, err
}

func (c *Controller) Room(ctx context.Context, roomID string) (*models.Room, error) {
	room, err := c.store.GetRoom(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	return room, err
}

// PublicRooms lists rooms that are not private, oldest first.
func (c *Controller) PublicRooms(ctx context.Context) ([]*models.Room, error) {
	rooms, err := c.store.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	public := rooms[:0]
	for _, r := range rooms {
		if !r.Private {
			public = append(public, r)
		}
	}
	sort.Slice(public, func(i, j int) bool { return public[i].CreatedAt.Before(public[j].CreatedAt) })
	return public, nil
}

// Scoreboard returns the room standings; members without points are listed at 0.
func (c *Controller) Scoreboard(ctx context.Context, roomID string) ([]models.ScoreEntry, error) {
	if _, err := c.Room(ctx, roomID); err != nil {
		return nil, err
	}
	return c.engine.Standings(ctx, roomID)
}

// Close stops all timers and room actors.
func (c *Controller) Close() {
	c.timers.Stop()
	c.actors.Close()
}

func (c *Controller) do(roomID string, fn func() error) error {
	if roomID == "" {
		return fmt.Errorf("%w: room_id is required", ErrInvalidIntent)
	}
	var err error
	if derr := c.actors.Do(roomID, func() { err = fn() }); derr != nil {
		return derr
	}
	return err
}

func (c *Controller) load(ctx context.Context, connID, roomID string) (*presence.Session, *models.Room, error) {
	sess, ok := c.presence.Session(connID)
	if !ok {
		return nil, nil, presence.ErrUnknownConnection
	}
	room, err := c.Room(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	return sess, room, nil
}

func (c *Controller) loadMember(ctx context.Context, connID, roomID string) (*presence.Session, *models.Room, error) {
	sess, room, err := c.load(ctx, connID, roomID)
	if err != nil {
		return nil, nil, err
	}
	if !sess.InRoom(roomID) {
		return nil, nil, ErrNotMember
	}
	return sess, room, nil
}

func (c *Controller) saveRoom(ctx context.Context, room *models.Room) error {
	room.UpdatedAt = c.now()
	return c.store.SaveRoom(ctx, room)
}

func (c *Controller) membershipChanged(ctx context.Context, room *models.Room, joined, left string) {
	members, err := c.presence.Members(ctx, room.ID)
	if err != nil {
		logger.Log.Warnf("room %s: members: %v", room.ID, err)
		return
	}
	standings, err := c.scores.Standings(ctx, room.ID, members)
	if err != nil {
		logger.Log.Warnf("room %s: standings: %v", room.ID, err)
		return
	}
	payload := models.MembershipChanged{
		RoomID:  room.ID,
		Status:  room.Status,
		Count:   len(members),
		Members: members,
		Joined:  joined,
		Left:    left,
		Scores:  standings,
	}
	if err := c.gateway.EmitToRoom(room.ID, models.EventMembershipChanged, payload); err != nil {
		logger.Log.Warnf("room %s: emit membership: %v", room.ID, err)
	}
}
