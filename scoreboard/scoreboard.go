// Package scoreboard keeps per-room scores and the decaying AddPoint reward.
package scoreboard

import (
	"context"
	"errors"
	"slices"

	"github.com/wfunc/sketchparty/models"
	"github.com/wfunc/sketchparty/store"
)

var ErrNegativeDelta = errors.New("score delta must not be negative")

// Rules are the reward parameters of a correct guess.
type Rules struct {
	Ceiling     int64
	Floor       int64
	Step        int64
	DrawerBonus int64
}

// Award is what one correct guess paid out.
type Award struct {
	Points      int64
	DrawerBonus int64
}

type Scoreboard struct {
	scores store.ScoreStore
	rules  Rules
}

func New(scores store.ScoreStore, rules Rules) *Scoreboard {
	if rules.Floor > rules.Ceiling {
		rules.Floor = rules.Ceiling
	}
	return &Scoreboard{scores: scores, rules: rules}
}

func (b *Scoreboard) Rules() Rules { return b.rules }

func (b *Scoreboard) Increment(ctx context.Context, roomID, username string, delta int64) (int64, error) {
	if delta < 0 {
		return 0, ErrNegativeDelta
	}
	return b.scores.IncrScore(ctx, roomID, username, delta)
}

func (b *Scoreboard) TopN(ctx context.Context, roomID string, n int) ([]models.ScoreEntry, error) {
	return b.scores.Scores(ctx, roomID, n)
}

func (b *Scoreboard) Entries(ctx context.Context, roomID string) ([]models.ScoreEntry, error) {
	return b.scores.Scores(ctx, roomID, 0)
}

// Score is 0 for a member with no entry.
func (b *Scoreboard) Score(ctx context.Context, roomID, username string) (int64, error) {
	return b.scores.Score(ctx, roomID, username)
}

func (b *Scoreboard) Reset(ctx context.Context, roomID string) error {
	return b.scores.ClearScores(ctx, roomID)
}

// MaxScore returns the best score in the room, 0 when nobody scored.
func (b *Scoreboard) MaxScore(ctx context.Context, roomID string) (int64, error) {
	top, err := b.scores.Scores(ctx, roomID, 1)
	if err != nil || len(top) == 0 {
		return 0, err
	}
	return top[0].Score, nil
}

// Standings lists every scored entry followed by the given members that have no entry yet, at 0.
func (b *Scoreboard) Standings(ctx context.Context, roomID string, members []string) ([]models.ScoreEntry, error) {
	entries, err := b.Entries(ctx, roomID)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if !slices.ContainsFunc(entries, func(e models.ScoreEntry) bool { return e.Username == m }) {
			entries = append(entries, models.ScoreEntry{Username: m})
		}
	}
	return entries, nil
}

func (b *Scoreboard) ResetAddPoint(ctx context.Context, roomID string) error {
	return b.scores.SetAddPoint(ctx, roomID, b.rules.Ceiling)
}

// AddPoint returns the reward of the next correct guess.
func (b *Scoreboard) AddPoint(ctx context.Context, roomID string) (int64, error) {
	v, ok, err := b.scores.AddPoint(ctx, roomID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return b.rules.Ceiling, nil
	}
	return v, nil
}

// AwardCorrect pays the guesser the current AddPoint and the drawer the fixed bonus,
// then decays AddPoint by one step without going under the floor.
func (b *Scoreboard) AwardCorrect(ctx context.Context, roomID, guesser, drawer string) (Award, error) {
	points, err := b.AddPoint(ctx, roomID)
	if err != nil {
		return Award{}, err
	}
	if _, err := b.scores.IncrScore(ctx, roomID, guesser, points); err != nil {
		return Award{}, err
	}

	award := Award{Points: points}
	if drawer != "" && drawer != guesser && b.rules.DrawerBonus > 0 {
		if _, err := b.scores.IncrScore(ctx, roomID, drawer, b.rules.DrawerBonus); err != nil {
			return Award{}, err
		}
		award.DrawerBonus = b.rules.DrawerBonus
	}

	next := max(points-b.rules.Step, b.rules.Floor)
	if err := b.scores.SetAddPoint(ctx, roomID, next); err != nil {
		return Award{}, err
	}
	return award, nil
}
