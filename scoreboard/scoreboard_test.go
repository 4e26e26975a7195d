package scoreboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/sketchparty/models"
	"github.com/wfunc/sketchparty/store"
)

func newBoard() *Scoreboard {
	return New(store.NewMemoryStore(time.Hour), Rules{Ceiling: 10, Floor: 7, Step: 2, DrawerBonus: 3})
}

func TestIncrementTopNReset(t *testing.T) {
	ctx := context.Background()
	b := newBoard()

	_, err := b.Increment(ctx, "r1", "a", 5)
	require.NoError(t, err)
	_, err = b.Increment(ctx, "r1", "b", 9)
	require.NoError(t, err)
	_, err = b.Increment(ctx, "r1", "c", 1)
	require.NoError(t, err)

	top, err := b.TopN(ctx, "r1", 2)
	require.NoError(t, err)
	assert.Equal(t, []models.ScoreEntry{{Username: "b", Score: 9}, {Username: "a", Score: 5}}, top)

	best, err := b.MaxScore(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(9), best)

	require.NoError(t, b.Reset(ctx, "r1"))
	best, err = b.MaxScore(ctx, "r1")
	require.NoError(t, err)
	assert.Zero(t, best)
}

func TestIncrement_RejectsNegative(t *testing.T) {
	_, err := newBoard().Increment(context.Background(), "r1", "a", -1)
	assert.ErrorIs(t, err, ErrNegativeDelta)
}

func TestAbsentMemberScoresZero(t *testing.T) {
	ctx := context.Background()
	b := newBoard()
	score, err := b.Score(ctx, "r1", "ghost")
	require.NoError(t, err)
	assert.Zero(t, score)

	_, err = b.Increment(ctx, "r1", "a", 4)
	require.NoError(t, err)
	standings, err := b.Standings(ctx, "r1", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []models.ScoreEntry{{Username: "a", Score: 4}, {Username: "b", Score: 0}}, standings)
}

func TestAwardCorrect_DecaysToFloor(t *testing.T) {
	ctx := context.Background()
	b := newBoard()
	require.NoError(t, b.ResetAddPoint(ctx, "r1"))

	var paid []int64
	for _, guesser := range []string{"g1", "g2", "g3", "g4"} {
		award, err := b.AwardCorrect(ctx, "r1", guesser, "drawer")
		require.NoError(t, err)
		assert.Equal(t, int64(3), award.DrawerBonus)
		paid = append(paid, award.Points)
	}
	assert.Equal(t, []int64{10, 8, 7, 7}, paid)

	drawer, err := b.Score(ctx, "r1", "drawer")
	require.NoError(t, err)
	assert.Equal(t, int64(12), drawer)

	require.NoError(t, b.ResetAddPoint(ctx, "r1"))
	next, err := b.AddPoint(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), next)
}

func TestAddPoint_DefaultsToCeiling(t *testing.T) {
	v, err := newBoard().AddPoint(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, int64(10), v)
}
