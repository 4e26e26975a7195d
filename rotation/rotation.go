// Package rotation picks drawers and keywords for a room.
package rotation

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"

	"github.com/wfunc/sketchparty/store"
)

var (
	ErrNoMembers = errors.New("room has no members")
	ErrEmptyPool = errors.New("keyword pool is empty")
)

// Rotation keeps every member drawing once per cycle and every keyword shown once per pool pass.
type Rotation struct {
	queue   store.RotationStore
	members store.MemberStore
	intn    func(n int) int
}

func New(queue store.RotationStore, members store.MemberStore) *Rotation {
	return &Rotation{queue: queue, members: members, intn: rand.IntN}
}

// SetRand replaces the random source used by NextKeyword.
func (r *Rotation) SetRand(intn func(n int) int) {
	r.intn = intn
}

// NextDrawer pops the pending queue, refilling it from membership order when empty.
// Queued usernames that are no longer members are skipped.
func (r *Rotation) NextDrawer(ctx context.Context, roomID string) (string, error) {
	refilled := false
	for {
		username, ok, err := r.queue.PopPending(ctx, roomID)
		if err != nil {
			return "", err
		}
		if !ok {
			if refilled {
				return "", ErrNoMembers
			}
			members, err := r.members.Members(ctx, roomID)
			if err != nil {
				return "", err
			}
			if len(members) == 0 {
				return "", ErrNoMembers
			}
			if err := r.queue.PushPending(ctx, roomID, members...); err != nil {
				return "", err
			}
			refilled = true
			continue
		}

		member, err := r.members.IsMember(ctx, roomID, username)
		if err != nil {
			return "", err
		}
		if member {
			return username, nil
		}
	}
}

// NextKeyword picks uniformly from pool minus the used set. An exhausted pool clears the used set.
func (r *Rotation) NextKeyword(ctx context.Context, roomID string, pool []string) (string, error) {
	pool = dedupe(pool)
	if len(pool) == 0 {
		return "", ErrEmptyPool
	}

	used, err := r.queue.UsedKeywords(ctx, roomID)
	if err != nil {
		return "", err
	}
	candidates := make([]string, 0, len(pool))
	for _, k := range pool {
		if !slices.Contains(used, k) {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 0 {
		if err := r.queue.ClearUsedKeywords(ctx, roomID); err != nil {
			return "", err
		}
		candidates = pool
	}

	keyword := candidates[r.intn(len(candidates))]
	if err := r.queue.AddUsedKeyword(ctx, roomID, keyword); err != nil {
		return "", err
	}
	return keyword, nil
}

// Reseed starts a new game cycle: pending is refilled from membership and used keywords are forgotten.
func (r *Rotation) Reseed(ctx context.Context, roomID string) error {
	if err := r.Clear(ctx, roomID); err != nil {
		return err
	}
	members, err := r.members.Members(ctx, roomID)
	if err != nil {
		return err
	}
	return r.queue.PushPending(ctx, roomID, members...)
}

func (r *Rotation) RemoveDrawer(ctx context.Context, roomID, username string) error {
	return r.queue.RemovePending(ctx, roomID, username)
}

func (r *Rotation) Clear(ctx context.Context, roomID string) error {
	if err := r.queue.ClearPending(ctx, roomID); err != nil {
		return err
	}
	return r.queue.ClearUsedKeywords(ctx, roomID)
}

func dedupe(pool []string) []string {
	out := make([]string, 0, len(pool))
	for _, k := range pool {
		if k != "" && !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}
