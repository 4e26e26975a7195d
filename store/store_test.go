package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/sketchparty/models"
)

// runStoreContract exercises behaviour every Store implementation must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("RoomRoundTrip", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetRoom(ctx, "r1")
		require.True(t, errors.Is(err, ErrNotFound))

		room := &models.Room{Version: models.RoomVersion, ID: "r1", Name: "Doodles", Capacity: 4,
			ScoreTarget: 50, Owner: "alice", Status: models.StatusWaiting, RoundSeconds: 60}
		require.NoError(t, s.SaveRoom(ctx, room))

		got, err := s.GetRoom(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "Doodles", got.Name)
		assert.Equal(t, 4, got.Capacity)
		assert.Equal(t, models.StatusWaiting, got.Status)

		rooms, err := s.ListRooms(ctx)
		require.NoError(t, err)
		require.Len(t, rooms, 1)

		require.NoError(t, s.DeleteRoom(ctx, "r1"))
		_, err = s.GetRoom(ctx, "r1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("TouchRoom", func(t *testing.T) {
		s := newStore(t)
		assert.ErrorIs(t, s.TouchRoom(ctx, "missing"), ErrNotFound)

		require.NoError(t, s.SaveRoom(ctx, &models.Room{Version: models.RoomVersion, ID: "r1"}))
		assert.NoError(t, s.TouchRoom(ctx, "r1"))
	})

	t.Run("ScoreTiesAreStable", func(t *testing.T) {
		s := newStore(t)
		for _, name := range []string{"zed", "amy", "kim"} {
			_, err := s.IncrScore(ctx, "r1", name, 5)
			require.NoError(t, err)
		}
		first, err := s.Scores(ctx, "r1", 0)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			again, err := s.Scores(ctx, "r1", 0)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})

	t.Run("MembersKeepJoinOrder", func(t *testing.T) {
		s := newStore(t)
		for i, name := range []string{"carol", "alice", "bob"} {
			n, err := s.AddMember(ctx, "r1", name)
			require.NoError(t, err)
			assert.Equal(t, int64(i+1), n)
		}
		n, err := s.AddMember(ctx, "r1", "carol")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n, "re-adding must not change the count")

		members, err := s.Members(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, []string{"carol", "alice", "bob"}, members)

		n, err = s.RemoveMember(ctx, "r1", "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		ok, err := s.IsMember(ctx, "r1", "alice")
		require.NoError(t, err)
		assert.False(t, ok)
		count, err := s.MemberCount(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("PendingQueue", func(t *testing.T) {
		s := newStore(t)
		_, ok, err := s.PopPending(ctx, "r1")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.PushPending(ctx, "r1", "a", "b", "c"))
		require.NoError(t, s.RemovePending(ctx, "r1", "b"))

		first, ok, err := s.PopPending(ctx, "r1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "a", first)

		rest, err := s.Pending(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, []string{"c"}, rest)

		require.NoError(t, s.ClearPending(ctx, "r1"))
		rest, err = s.Pending(ctx, "r1")
		require.NoError(t, err)
		assert.Empty(t, rest)
	})

	t.Run("UsedKeywords", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.AddUsedKeyword(ctx, "r1", "apple"))
		require.NoError(t, s.AddUsedKeyword(ctx, "r1", "apple"))
		require.NoError(t, s.AddUsedKeyword(ctx, "r1", "pear"))
		used, err := s.UsedKeywords(ctx, "r1")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"apple", "pear"}, used)

		require.NoError(t, s.ClearUsedKeywords(ctx, "r1"))
		used, err = s.UsedKeywords(ctx, "r1")
		require.NoError(t, err)
		assert.Empty(t, used)
	})

	t.Run("Scores", func(t *testing.T) {
		s := newStore(t)
		score, err := s.Score(ctx, "r1", "nobody")
		require.NoError(t, err)
		assert.Zero(t, score)

		_, err = s.IncrScore(ctx, "r1", "a", 10)
		require.NoError(t, err)
		_, err = s.IncrScore(ctx, "r1", "b", 30)
		require.NoError(t, err)
		total, err := s.IncrScore(ctx, "r1", "a", 5)
		require.NoError(t, err)
		assert.Equal(t, int64(15), total)
		_, err = s.IncrScore(ctx, "r1", "c", 1)
		require.NoError(t, err)

		top, err := s.Scores(ctx, "r1", 2)
		require.NoError(t, err)
		assert.Equal(t, []models.ScoreEntry{{Username: "b", Score: 30}, {Username: "a", Score: 15}}, top)

		all, err := s.Scores(ctx, "r1", 0)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		require.NoError(t, s.ClearScores(ctx, "r1"))
		all, err = s.Scores(ctx, "r1", 0)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("AddPoint", func(t *testing.T) {
		s := newStore(t)
		_, ok, err := s.AddPoint(ctx, "r1")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.SetAddPoint(ctx, "r1", 7))
		v, ok, err := s.AddPoint(ctx, "r1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(7), v)
	})

	t.Run("RoundAndAnswered", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetRound(ctx, "r1")
		require.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.SaveRound(ctx, &models.RoundState{RoomID: "r1", Number: 2, Drawer: "a", Keyword: "apple"}))
		round, err := s.GetRound(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "apple", round.Keyword)
		assert.Equal(t, 2, round.Number)

		added, err := s.MarkAnswered(ctx, "r1", "b")
		require.NoError(t, err)
		assert.True(t, added)
		added, err = s.MarkAnswered(ctx, "r1", "b")
		require.NoError(t, err)
		assert.False(t, added, "second mark must be a no-op")

		answered, err := s.Answered(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, answered)

		require.NoError(t, s.DeleteRound(ctx, "r1"))
		_, err = s.GetRound(ctx, "r1")
		assert.ErrorIs(t, err, ErrNotFound)
		answered, err = s.Answered(ctx, "r1")
		require.NoError(t, err)
		assert.Empty(t, answered)
	})
}
