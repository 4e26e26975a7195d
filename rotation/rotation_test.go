package rotation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/sketchparty/store"
)

func setup(t *testing.T, members ...string) (*Rotation, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore(time.Hour)
	for _, m := range members {
		_, err := s.AddMember(context.Background(), "r1", m)
		require.NoError(t, err)
	}
	return New(s, s), s
}

func TestNextDrawer_EachMemberOncePerCycle(t *testing.T) {
	ctx := context.Background()
	r, _ := setup(t, "a", "b", "c", "d")

	var first []string
	for i := 0; i < 4; i++ {
		d, err := r.NextDrawer(ctx, "r1")
		require.NoError(t, err)
		first = append(first, d)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, first)

	again, err := r.NextDrawer(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "a", again, "the queue refills in membership order")
}

func TestNextDrawer_SkipsDepartedMembers(t *testing.T) {
	ctx := context.Background()
	r, s := setup(t, "a", "b", "c")
	require.NoError(t, r.Reseed(ctx, "r1"))

	_, err := s.RemoveMember(ctx, "r1", "a")
	require.NoError(t, err)

	d, err := r.NextDrawer(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "b", d)
}

func TestNextDrawer_NoMembers(t *testing.T) {
	r, _ := setup(t)
	_, err := r.NextDrawer(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrNoMembers)
}

func TestRemoveDrawer(t *testing.T) {
	ctx := context.Background()
	r, s := setup(t, "a", "b", "c")
	require.NoError(t, r.Reseed(ctx, "r1"))
	require.NoError(t, r.RemoveDrawer(ctx, "r1", "b"))

	pending, err := s.Pending(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, pending)
}

func TestNextKeyword_NoRepeatUntilExhausted(t *testing.T) {
	ctx := context.Background()
	r, s := setup(t, "a")
	pool := []string{"apple", "banana", "cherry", "date", "elder"}

	seen := map[string]bool{}
	for i := 0; i < len(pool); i++ {
		k, err := r.NextKeyword(ctx, "r1", pool)
		require.NoError(t, err)
		require.False(t, seen[k], "keyword %q repeated before the pool was exhausted", k)
		seen[k] = true
	}
	assert.Len(t, seen, len(pool))

	k, err := r.NextKeyword(ctx, "r1", pool)
	require.NoError(t, err)
	assert.Contains(t, pool, k)
	used, err := s.UsedKeywords(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{k}, used, "used set restarts after exhaustion")
}

func TestNextKeyword_UsesRandomSource(t *testing.T) {
	ctx := context.Background()
	r, _ := setup(t, "a")
	r.SetRand(func(n int) int { return n - 1 })

	k, err := r.NextKeyword(ctx, "r1", []string{"x", "y", "z"})
	require.NoError(t, err)
	assert.Equal(t, "z", k)
	k, err = r.NextKeyword(ctx, "r1", []string{"x", "y", "z"})
	require.NoError(t, err)
	assert.Equal(t, "y", k)
}

func TestNextKeyword_EmptyPool(t *testing.T) {
	r, _ := setup(t, "a")
	_, err := r.NextKeyword(context.Background(), "r1", []string{"", ""})
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestReseed_ClearsUsedKeywords(t *testing.T) {
	ctx := context.Background()
	r, s := setup(t, "a", "b")
	_, err := r.NextKeyword(ctx, "r1", []string{"x"})
	require.NoError(t, err)

	require.NoError(t, r.Reseed(ctx, "r1"))
	used, err := s.UsedKeywords(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, used)
	pending, err := s.Pending(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, pending)
}
