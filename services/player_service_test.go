package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/sketchparty/models"
	"github.com/wfunc/sketchparty/persistence"
)

func TestAwardPodium(t *testing.T) {
	ctx := context.Background()
	db := persistence.NewMemoryPlayerStore()
	svc := NewPlayerService(db)

	podium := []models.ScoreEntry{
		{Username: "A", Score: 100},
		{Username: "B", Score: 80},
		{Username: "C", Score: 60},
		{Username: "D", Score: 10},
	}
	require.NoError(t, svc.AwardPodium(ctx, podium))

	for i, name := range []string{"A", "B", "C"} {
		p, err := svc.GetPlayerWithStats(ctx, name)
		require.NoError(t, err)
		places := []int{p.FirstPlaces, p.SecondPlaces, p.ThirdPlaces}
		want := []int{0, 0, 0}
		want[i] = 1
		assert.Equal(t, want, places, name)
		assert.Equal(t, i+1, p.Rank, name)
	}

	_, err := svc.GetPlayerWithStats(ctx, "D")
	assert.ErrorIs(t, err, persistence.ErrRecordNotFound)
}

func TestAwardPodiumShort(t *testing.T) {
	ctx := context.Background()
	svc := NewPlayerService(persistence.NewMemoryPlayerStore())

	require.NoError(t, svc.AwardPodium(ctx, []models.ScoreEntry{{Username: "solo", Score: 5}}))
	require.NoError(t, svc.AwardPodium(ctx, nil))

	p, err := svc.GetPlayerWithStats(ctx, "solo")
	require.NoError(t, err)
	assert.Equal(t, 1, p.FirstPlaces)
	assert.Equal(t, 1, p.Rank)
}

func TestPlayersInRoom(t *testing.T) {
	ctx := context.Background()
	db := persistence.NewMemoryPlayerStore()
	require.NoError(t, db.IncrementWordsDrawn(ctx, "bob"))
	require.NoError(t, db.IncrementWordsDrawn(ctx, "alice"))

	players, err := NewPlayerService(db).PlayersInRoom(ctx, []string{"bob", "alice", "nobody"})
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "alice", players[0].Username)
	assert.Equal(t, "bob", players[1].Username)
}
