package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runPlayerStoreContract checks behaviour every PlayerStore must share.
func runPlayerStoreContract(t *testing.T, newStore func(t *testing.T) PlayerStore) {
	ctx := context.Background()

	t.Run("Counters", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.IncrementWordsDrawn(ctx, "alice"))
		require.NoError(t, s.IncrementWordsDrawn(ctx, "alice"))
		require.NoError(t, s.IncrementTotalGuesses(ctx, "alice"))
		require.NoError(t, s.IncrementWordsGuessed(ctx, "alice"))

		p, err := s.GetPlayer(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 2, p.WordsDrawn)
		assert.Equal(t, 1, p.WordsGuessed)
		assert.Equal(t, 1, p.TotalGuesses)
	})

	t.Run("UnknownPlayer", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetPlayer(ctx, "ghost")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("AchievementPlaces", func(t *testing.T) {
		s := newStore(t)
		assert.ErrorIs(t, s.UpdateAchievement(ctx, "alice", 0), ErrInvalidPlace)
		assert.ErrorIs(t, s.UpdateAchievement(ctx, "alice", 4), ErrInvalidPlace)

		require.NoError(t, s.UpdateAchievement(ctx, "alice", 1))
		require.NoError(t, s.UpdateAchievement(ctx, "alice", 1))
		require.NoError(t, s.UpdateAchievement(ctx, "alice", 3))

		p, err := s.GetPlayer(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 2, p.FirstPlaces)
		assert.Equal(t, 0, p.SecondPlaces)
		assert.Equal(t, 1, p.ThirdPlaces)
	})

	t.Run("Rank", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.UpdateAchievement(ctx, "carol", 3))
		require.NoError(t, s.UpdateAchievement(ctx, "bob", 2))
		require.NoError(t, s.UpdateAchievement(ctx, "alice", 1))
		require.NoError(t, s.IncrementWordsGuessed(ctx, "dave"))
		require.NoError(t, s.UpdatePlayerRank(ctx))

		players, err := s.PlayersByUsernames(ctx, []string{"dave", "alice", "bob", "carol", "ghost"})
		require.NoError(t, err)
		require.Len(t, players, 4)

		ranks := map[string]int{}
		for _, p := range players {
			ranks[p.Username] = p.Rank
		}
		assert.Equal(t, map[string]int{"alice": 1, "bob": 2, "carol": 3, "dave": 4}, ranks)
		assert.Equal(t, "alice", players[0].Username)
	})

	t.Run("Topics", func(t *testing.T) {
		s := newStore(t)
		words, err := s.KeywordsForTopic(ctx, "animals")
		require.NoError(t, err)
		assert.Empty(t, words)

		require.NoError(t, s.SaveTopic(ctx, "animals", "Animals", []string{"cat", "dog"}))
		words, err = s.KeywordsForTopic(ctx, "animals")
		require.NoError(t, err)
		assert.Equal(t, []string{"cat", "dog"}, words)

		require.NoError(t, s.SaveTopic(ctx, "animals", "Animals", []string{"owl"}))
		words, err = s.KeywordsForTopic(ctx, "animals")
		require.NoError(t, err)
		assert.Equal(t, []string{"owl"}, words)
	})

	t.Run("SeedDefaultTopic", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, SeedDefaultTopic(ctx, s, "default"))
		words, err := s.KeywordsForTopic(ctx, "default")
		require.NoError(t, err)
		assert.Equal(t, DefaultKeywords, words)

		// an existing pool is left alone
		require.NoError(t, s.SaveTopic(ctx, "default", "Default", []string{"only"}))
		require.NoError(t, SeedDefaultTopic(ctx, s, "default"))
		words, err = s.KeywordsForTopic(ctx, "default")
		require.NoError(t, err)
		assert.Equal(t, []string{"only"}, words)
	})
}
