// Package round runs the timed drawing rounds of a room.
//
// Engine methods are not safe for concurrent use on the same room; callers serialize
// every call for a room, timer fires included.
package round

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/wfunc/sketchparty/config"
	"github.com/wfunc/sketchparty/logger"
	"github.com/wfunc/sketchparty/models"
	"github.com/wfunc/sketchparty/rotation"
	"github.com/wfunc/sketchparty/scoreboard"
	"github.com/wfunc/sketchparty/state"
	"github.com/wfunc/sketchparty/store"
)

var (
	ErrNoActiveRound    = errors.New("no active round")
	ErrNotDrawer        = errors.New("only the drawer can reveal hints")
	ErrInvalidHintLevel = errors.New("hint level must be between 1 and 3")
)

// GuessResult classifies a submitted guess.
type GuessResult int

const (
	GuessIgnored GuessResult = iota
	GuessWrong
	GuessClose
	GuessCorrect
)

func (r GuessResult) String() string {
	switch r {
	case GuessWrong:
		return "wrong"
	case GuessClose:
		return "close"
	case GuessCorrect:
		return "correct"
	default:
		return "ignored"
	}
}

// Gateway delivers outbound events.
type Gateway interface {
	EmitToRoom(roomID, event string, payload any) error
	EmitToConnection(connID, event string, payload any) error
	EmitToUser(roomID, username, event string, payload any) error
}

// Scheduler arms one timer per room; Schedule replaces the previous one.
type Scheduler interface {
	Schedule(roomID string, delay time.Duration, fn func())
	Cancel(roomID string)
}

// PlayerRecorder receives per-player statistic increments.
type PlayerRecorder interface {
	IncrementWordsDrawn(ctx context.Context, username string) error
	IncrementWordsGuessed(ctx context.Context, username string) error
	IncrementTotalGuesses(ctx context.Context, username string) error
}

// Podium persists the final top-3 of a game.
type Podium interface {
	AwardPodium(ctx context.Context, podium []models.ScoreEntry) error
}

type KeywordSource interface {
	KeywordsForTopic(ctx context.Context, topicID string) ([]string, error)
}

type Metrics interface {
	ObserveGuess(result string)
	ObserveRoundEnd(reason string)
	IncGamesCompleted()
}

type Deps struct {
	Rooms     store.RoomStore
	Members   store.MemberStore
	Rounds    store.RoundStore
	Rotation  *rotation.Rotation
	Scores    *scoreboard.Scoreboard
	Players   PlayerRecorder
	Podium    Podium
	Keywords  KeywordSource
	Gateway   Gateway
	Scheduler Scheduler
	Metrics   Metrics
	Now       func() time.Time
	Config    config.GameConfig
}

type Engine struct {
	rooms     store.RoomStore
	members   store.MemberStore
	rounds    store.RoundStore
	rotation  *rotation.Rotation
	scores    *scoreboard.Scoreboard
	players   PlayerRecorder
	podium    Podium
	keywords  KeywordSource
	gateway   Gateway
	scheduler Scheduler
	metrics   Metrics
	now       func() time.Time
	cfg       config.GameConfig
	phases    *state.Table
}

func NewEngine(d Deps) *Engine {
	e := &Engine{
		rooms:     d.Rooms,
		members:   d.Members,
		rounds:    d.Rounds,
		rotation:  d.Rotation,
		scores:    d.Scores,
		players:   d.Players,
		podium:    d.Podium,
		keywords:  d.Keywords,
		gateway:   d.Gateway,
		scheduler: d.Scheduler,
		metrics:   d.Metrics,
		now:       d.Now,
		cfg:       d.Config,
		phases:    state.RoundTable(),
	}
	if e.players == nil {
		e.players = nopRecorder{}
	}
	if e.podium == nil {
		e.podium = nopPodium{}
	}
	if e.metrics == nil {
		e.metrics = nopMetrics{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Start begins the next round: drawer and keyword are chosen, the deadline is armed,
// the keyword goes to the drawer only and the room gets a keyword-free notice.
func (e *Engine) Start(ctx context.Context, room *models.Room) error {
	prev, err := e.currentRound(ctx, room.ID)
	if err != nil {
		return err
	}
	from, number := state.PhaseIdle, 0
	if prev != nil {
		from, number = phaseOf(prev), prev.Number
	}
	if err := e.phases.Check(from, state.PhaseDrawing); err != nil {
		return err
	}

	e.scheduler.Cancel(room.ID)

	drawer, err := e.rotation.NextDrawer(ctx, room.ID)
	if err != nil {
		return err
	}
	pool, err := e.keywords.KeywordsForTopic(ctx, room.TopicID)
	if err != nil {
		return err
	}
	keyword, err := e.rotation.NextKeyword(ctx, room.ID, pool)
	if err != nil {
		return err
	}

	seconds := room.RoundSeconds
	if seconds <= 0 {
		seconds = e.cfg.DefaultRoundSeconds
	}
	now := e.now()
	rs := &models.RoundState{
		RoomID:    room.ID,
		Number:    number + 1,
		Drawer:    drawer,
		Keyword:   keyword,
		Duration:  seconds,
		StartedAt: now,
		EndTime:   now.Add(time.Duration(seconds)*time.Second + e.cfg.DeadlineGrace),
		Phase:     string(state.PhaseDrawing),
	}
	if err := e.rounds.ClearAnswered(ctx, room.ID); err != nil {
		return err
	}
	if err := e.scores.ResetAddPoint(ctx, room.ID); err != nil {
		return err
	}
	if err := e.rounds.SaveRound(ctx, rs); err != nil {
		return err
	}
	// a running game is activity: keep the room and the keys written this round alive
	if err := e.rooms.TouchRoom(ctx, room.ID); err != nil {
		return err
	}

	roomID, n := room.ID, rs.Number
	e.scheduler.Schedule(roomID, rs.EndTime.Sub(now), func() {
		if err := e.Expire(context.Background(), roomID, n); err != nil {
			logger.Log.Errorf("room %s: expire round %d: %v", roomID, n, err)
		}
	})

	e.record(ctx, e.players.IncrementWordsDrawn, drawer)
	logger.Log.Infof("room %s: round %d started, drawer %s", room.ID, rs.Number, drawer)

	e.emitUser(room.ID, drawer, models.EventKeywordForDrawer, models.KeywordForDrawer{
		RoomID:  room.ID,
		Number:  rs.Number,
		Keyword: keyword,
	})
	e.emitRoom(room.ID, models.EventRoundStarted, models.RoundStarted{
		RoomID:   room.ID,
		Number:   rs.Number,
		Drawer:   drawer,
		Duration: seconds,
		EndTime:  rs.EndTime.UnixMilli(),
	})
	return nil
}

// SubmitGuess evaluates one chat line against the keyword.
// Drawer lines, empty lines and lines from players who already answered are ignored.
func (e *Engine) SubmitGuess(ctx context.Context, roomID, username, text string) (GuessResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return GuessIgnored, nil
	}
	rs, err := e.currentRound(ctx, roomID)
	if err != nil {
		return GuessIgnored, err
	}
	if rs == nil {
		return GuessIgnored, ErrNoActiveRound
	}
	if phaseOf(rs) != state.PhaseDrawing || username == rs.Drawer {
		return GuessIgnored, nil
	}
	answered, err := e.rounds.Answered(ctx, roomID)
	if err != nil {
		return GuessIgnored, err
	}
	if slices.Contains(answered, username) {
		return GuessIgnored, nil
	}

	e.record(ctx, e.players.IncrementTotalGuesses, username)

	switch {
	case IsCorrect(text, rs.Keyword):
		return e.correct(ctx, rs, username)
	case IsClose(text, rs.Keyword, e.cfg.ShortKeywordLen):
		e.metrics.ObserveGuess(GuessClose.String())
		e.emitUser(roomID, username, models.EventCloseGuess, models.CloseGuess{RoomID: roomID, Guess: text})
		return GuessClose, nil
	default:
		e.metrics.ObserveGuess(GuessWrong.String())
		e.emitRoom(roomID, models.EventChatMessage, models.ChatMessage{RoomID: roomID, Username: username, Text: text})
		return GuessWrong, nil
	}
}

func (e *Engine) correct(ctx context.Context, rs *models.RoundState, username string) (GuessResult, error) {
	added, err := e.rounds.MarkAnswered(ctx, rs.RoomID, username)
	if err != nil {
		return GuessIgnored, err
	}
	if !added {
		return GuessIgnored, nil
	}
	award, err := e.scores.AwardCorrect(ctx, rs.RoomID, username, rs.Drawer)
	if err != nil {
		return GuessIgnored, err
	}
	done, err := e.allAnswered(ctx, rs)
	if err != nil {
		return GuessIgnored, err
	}
	standings, err := e.standings(ctx, rs.RoomID)
	if err != nil {
		return GuessIgnored, err
	}

	e.record(ctx, e.players.IncrementWordsGuessed, username)
	e.metrics.ObserveGuess(GuessCorrect.String())
	e.emitRoom(rs.RoomID, models.EventCorrectGuess, models.CorrectGuess{
		RoomID:      rs.RoomID,
		Username:    username,
		Points:      award.Points,
		Drawer:      rs.Drawer,
		DrawerBonus: award.DrawerBonus,
		Scores:      standings,
	})

	if done {
		if err := e.endEarly(ctx, rs); err != nil {
			return GuessCorrect, err
		}
	}
	return GuessCorrect, nil
}

// RequestHint broadcasts the masked keyword at the given level. Only the drawer may ask.
func (e *Engine) RequestHint(ctx context.Context, roomID, username string, level int) (string, error) {
	if level < 1 || level > 3 {
		return "", ErrInvalidHintLevel
	}
	rs, err := e.currentRound(ctx, roomID)
	if err != nil {
		return "", err
	}
	if rs == nil || phaseOf(rs) != state.PhaseDrawing {
		return "", ErrNoActiveRound
	}
	if username != rs.Drawer {
		return "", ErrNotDrawer
	}

	hint := Mask(rs.Keyword, level)
	if level > rs.HintLevel {
		rs.HintLevel = level
		if err := e.rounds.SaveRound(ctx, rs); err != nil {
			return "", err
		}
	}
	e.emitRoom(roomID, models.EventHintRevealed, models.HintRevealed{RoomID: roomID, Level: level, Hint: hint})
	return hint, nil
}

// Expire is the deadline callback of round number.
func (e *Engine) Expire(ctx context.Context, roomID string, number int) error {
	rs, err := e.currentRound(ctx, roomID)
	if err != nil || rs == nil || rs.Number != number || phaseOf(rs) != state.PhaseDrawing {
		return err
	}
	return e.reveal(ctx, rs, models.ReasonTimeout)
}

// Reveal ends round number and shows its keyword to the room.
func (e *Engine) Reveal(ctx context.Context, roomID string, number int, reason string) error {
	rs, err := e.currentRound(ctx, roomID)
	if err != nil || rs == nil || rs.Number != number {
		return err
	}
	return e.reveal(ctx, rs, reason)
}

func (e *Engine) reveal(ctx context.Context, rs *models.RoundState, reason string) error {
	if rs.Revealed {
		return nil
	}
	if from := phaseOf(rs); from != state.PhaseRoundEnd {
		if err := e.phases.Check(from, state.PhaseRoundEnd); err != nil {
			return err
		}
	}
	rs.Phase = string(state.PhaseRoundEnd)
	rs.Revealed = true
	if err := e.rounds.SaveRound(ctx, rs); err != nil {
		return err
	}
	if err := e.rooms.TouchRoom(ctx, rs.RoomID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	standings, err := e.standings(ctx, rs.RoomID)
	if err != nil {
		return err
	}

	roomID, n := rs.RoomID, rs.Number
	e.scheduler.Schedule(roomID, e.cfg.RevealDelay, func() {
		if err := e.Advance(context.Background(), roomID, n); err != nil {
			logger.Log.Errorf("room %s: advance after round %d: %v", roomID, n, err)
		}
	})

	logger.Log.Infof("room %s: round %d ended (%s)", roomID, n, reason)
	e.metrics.ObserveRoundEnd(reason)
	e.emitRoom(roomID, models.EventRoundEnded, models.RoundEnded{
		RoomID:  roomID,
		Number:  n,
		Keyword: rs.Keyword,
		Reason:  reason,
		Scores:  standings,
	})
	return nil
}

// endEarly freezes the round and reveals it after the early-end grace.
func (e *Engine) endEarly(ctx context.Context, rs *models.RoundState) error {
	if err := e.phases.Check(phaseOf(rs), state.PhaseRoundEnd); err != nil {
		return err
	}
	rs.Phase = string(state.PhaseRoundEnd)
	if err := e.rounds.SaveRound(ctx, rs); err != nil {
		return err
	}
	roomID, n := rs.RoomID, rs.Number
	e.scheduler.Schedule(roomID, e.cfg.EarlyEndGrace, func() {
		if err := e.Reveal(context.Background(), roomID, n, models.ReasonAllAnswered); err != nil {
			logger.Log.Errorf("room %s: reveal round %d: %v", roomID, n, err)
		}
	})
	return nil
}

// Advance runs after the reveal delay: the game ends once the best score reaches the
// room's target, otherwise the next round starts.
func (e *Engine) Advance(ctx context.Context, roomID string, number int) error {
	rs, err := e.currentRound(ctx, roomID)
	if err != nil || rs == nil || rs.Number != number || !rs.Revealed {
		return err
	}
	room, err := e.rooms.GetRoom(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		if err := e.Abort(ctx, roomID); err != nil {
			return err
		}
		logger.Log.Warnf("room %s: record expired during the game", roomID)
		e.emitRoom(roomID, models.EventGameStopped, models.GameStopped{RoomID: roomID, Reason: models.ReasonRoomExpired})
		return nil
	}
	if err != nil {
		return err
	}
	if room.Status != models.StatusPlaying {
		return nil
	}

	best, err := e.scores.MaxScore(ctx, roomID)
	if err != nil {
		return err
	}
	if room.ScoreTarget > 0 && best >= room.ScoreTarget {
		return e.EndGame(ctx, room)
	}

	if err := e.Start(ctx, room); err != nil {
		logger.Log.Warnf("room %s: next round failed, stopping game: %v", roomID, err)
		return e.Stop(ctx, room, "round_failed")
	}
	return nil
}

// EndGame awards the podium, broadcasts the final standings, resets the scoreboard
// and returns the room to waiting.
func (e *Engine) EndGame(ctx context.Context, room *models.Room) error {
	rs, err := e.currentRound(ctx, room.ID)
	if err != nil {
		return err
	}
	if rs != nil {
		if err := e.phases.Check(phaseOf(rs), state.PhaseGameEnd); err != nil {
			return err
		}
	}
	e.scheduler.Cancel(room.ID)

	podium, err := e.scores.TopN(ctx, room.ID, 3)
	if err != nil {
		return err
	}
	standings, err := e.standings(ctx, room.ID)
	if err != nil {
		return err
	}
	if err := e.podium.AwardPodium(ctx, podium); err != nil {
		logger.Log.Warnf("room %s: award podium: %v", room.ID, err)
	}

	if err := e.scores.Reset(ctx, room.ID); err != nil {
		return err
	}
	if err := e.scores.ResetAddPoint(ctx, room.ID); err != nil {
		return err
	}
	if err := e.rotation.Clear(ctx, room.ID); err != nil {
		return err
	}
	if err := e.rounds.DeleteRound(ctx, room.ID); err != nil {
		return err
	}
	room.Status = models.StatusWaiting
	room.UpdatedAt = e.now()
	if err := e.rooms.SaveRoom(ctx, room); err != nil {
		return err
	}

	logger.Log.Infof("room %s: game ended, podium %v", room.ID, podium)
	e.metrics.IncGamesCompleted()
	e.emitRoom(room.ID, models.EventGameEnded, models.GameEnded{RoomID: room.ID, Podium: podium, Scores: standings})
	return nil
}

// Abort drops the active round and its timers without touching scores.
func (e *Engine) Abort(ctx context.Context, roomID string) error {
	e.scheduler.Cancel(roomID)
	return e.rounds.DeleteRound(ctx, roomID)
}

// Stop aborts the round, puts the room back to waiting and tells its members why.
func (e *Engine) Stop(ctx context.Context, room *models.Room, reason string) error {
	if err := e.Abort(ctx, room.ID); err != nil {
		return err
	}
	room.Status = models.StatusWaiting
	room.UpdatedAt = e.now()
	if err := e.rooms.SaveRoom(ctx, room); err != nil {
		return err
	}
	logger.Log.Infof("room %s: game stopped (%s)", room.ID, reason)
	e.emitRoom(room.ID, models.EventGameStopped, models.GameStopped{RoomID: room.ID, Reason: reason})
	return nil
}

// HandleLeave reacts to a member that already left the membership set:
// the drawer leaving ends the round, anyone else leaving may complete the answered-set.
func (e *Engine) HandleLeave(ctx context.Context, roomID, username string) error {
	rs, err := e.currentRound(ctx, roomID)
	if err != nil || rs == nil || phaseOf(rs) != state.PhaseDrawing {
		return err
	}
	if username == rs.Drawer {
		return e.reveal(ctx, rs, models.ReasonDrawerLeft)
	}
	done, err := e.allAnswered(ctx, rs)
	if err != nil || !done {
		return err
	}
	return e.endEarly(ctx, rs)
}

// View returns the non-secret part of the active round.
func (e *Engine) View(ctx context.Context, roomID string) (*models.RoundView, error) {
	rs, err := e.currentRound(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if rs == nil {
		return nil, ErrNoActiveRound
	}
	return e.view(ctx, rs)
}

func (e *Engine) view(ctx context.Context, rs *models.RoundState) (*models.RoundView, error) {
	answered, err := e.rounds.Answered(ctx, rs.RoomID)
	if err != nil {
		return nil, err
	}
	v := &models.RoundView{
		RoomID:    rs.RoomID,
		Number:    rs.Number,
		Drawer:    rs.Drawer,
		Duration:  rs.Duration,
		EndTime:   rs.EndTime.UnixMilli(),
		Phase:     string(phaseOf(rs)),
		HintLevel: rs.HintLevel,
		Answered:  answered,
	}
	if rs.HintLevel > 0 {
		v.Hint = Mask(rs.Keyword, rs.HintLevel)
	}
	return v, nil
}

// SyncConnection brings a connection that joined mid-round up to date. A reconnecting
// drawer also gets the keyword again.
func (e *Engine) SyncConnection(ctx context.Context, roomID, connID, username string) error {
	rs, err := e.currentRound(ctx, roomID)
	if err != nil || rs == nil {
		return err
	}
	v, err := e.view(ctx, rs)
	if err != nil {
		return err
	}
	e.emitConn(connID, models.EventRoundSync, v)
	if username == rs.Drawer && phaseOf(rs) == state.PhaseDrawing {
		e.emitConn(connID, models.EventKeywordForDrawer, models.KeywordForDrawer{
			RoomID:  roomID,
			Number:  rs.Number,
			Keyword: rs.Keyword,
		})
	}
	return nil
}

// Standings returns the room scoreboard including members without points.
func (e *Engine) Standings(ctx context.Context, roomID string) ([]models.ScoreEntry, error) {
	return e.standings(ctx, roomID)
}

func (e *Engine) standings(ctx context.Context, roomID string) ([]models.ScoreEntry, error) {
	members, err := e.members.Members(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return e.scores.Standings(ctx, roomID, members)
}

// allAnswered is true when every current non-drawer member is in the answered-set.
func (e *Engine) allAnswered(ctx context.Context, rs *models.RoundState) (bool, error) {
	members, err := e.members.Members(ctx, rs.RoomID)
	if err != nil {
		return false, err
	}
	answered, err := e.rounds.Answered(ctx, rs.RoomID)
	if err != nil {
		return false, err
	}
	guessers := 0
	for _, m := range members {
		if m == rs.Drawer {
			continue
		}
		guessers++
		if !slices.Contains(answered, m) {
			return false, nil
		}
	}
	return guessers > 0, nil
}

func (e *Engine) currentRound(ctx context.Context, roomID string) (*models.RoundState, error) {
	rs, err := e.rounds.GetRound(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return rs, err
}

func phaseOf(rs *models.RoundState) state.Phase {
	p, err := state.ParsePhase(rs.Phase)
	if err != nil {
		return state.PhaseIdle
	}
	return p
}

func (e *Engine) record(ctx context.Context, fn func(context.Context, string) error, username string) {
	if err := fn(ctx, username); err != nil {
		logger.Log.Warnf("record stats for %s: %v", username, err)
	}
}

func (e *Engine) emitRoom(roomID, event string, payload any) {
	if err := e.gateway.EmitToRoom(roomID, event, payload); err != nil {
		logger.Log.Warnf("room %s: emit %s: %v", roomID, event, err)
	}
}

func (e *Engine) emitUser(roomID, username, event string, payload any) {
	if err := e.gateway.EmitToUser(roomID, username, event, payload); err != nil {
		logger.Log.Warnf("room %s: emit %s to %s: %v", roomID, event, username, err)
	}
}

func (e *Engine) emitConn(connID, event string, payload any) {
	if err := e.gateway.EmitToConnection(connID, event, payload); err != nil {
		logger.Log.Warnf("conn %s: emit %s: %v", connID, event, err)
	}
}

type nopRecorder struct{}

func (nopRecorder) IncrementWordsDrawn(context.Context, string) error   { return nil }
func (nopRecorder) IncrementWordsGuessed(context.Context, string) error { return nil }
func (nopRecorder) IncrementTotalGuesses(context.Context, string) error { return nil }

type nopPodium struct{}

func (nopPodium) AwardPodium(context.Context, []models.ScoreEntry) error { return nil }

type nopMetrics struct{}

func (nopMetrics) ObserveGuess(string)    {}
func (nopMetrics) ObserveRoundEnd(string) {}
func (nopMetrics) IncGamesCompleted()     {}
