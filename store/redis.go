// store/redis.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wfunc/sketchparty/models"
)

const roomIndexKey = "rooms"

func roomKey(roomID string) string     { return "room:" + roomID }
func membersKey(roomID string) string  { return "room:" + roomID + ":members" }
func joinSeqKey(roomID string) string  { return "room:" + roomID + ":joinseq" }
func pendingKey(roomID string) string  { return "room:" + roomID + ":pending" }
func usedKey(roomID string) string     { return "room:" + roomID + ":used" }
func scoresKey(roomID string) string   { return "room:" + roomID + ":scores" }
func addPointKey(roomID string) string { return "room:" + roomID + ":addpoint" }
func roundKey(roomID string) string    { return "room:" + roomID + ":round" }
func answeredKey(roomID string) string { return "room:" + roomID + ":answered" }

func allRoomKeys(roomID string) []string {
	return []string{
		roomKey(roomID), membersKey(roomID), joinSeqKey(roomID), pendingKey(roomID), usedKey(roomID),
		scoresKey(roomID), addPointKey(roomID), roundKey(roomID), answeredKey(roomID),
	}
}

// RedisStore keeps all per-room state in Redis under room:{id}:* keys.
type RedisStore struct {
	client              *redis.Client
	ttl                 time.Duration
	defaultRoundSeconds int
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration, defaultRoundSeconds int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisStoreFromClient(client, ttl, defaultRoundSeconds), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration, defaultRoundSeconds int) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, defaultRoundSeconds: defaultRoundSeconds}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// expire queues a TTL refresh for keys created outside SaveRoom.
func (s *RedisStore) expire(ctx context.Context, pipe redis.Pipeliner, key string) {
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
}

// --- rooms ---

func (s *RedisStore) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	data, err := s.client.Get(ctx, roomKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return models.DecodeRoom(data, s.defaultRoundSeconds)
}

// SaveRoom writes the record and refreshes the idle TTL of every key of the room.
func (s *RedisStore) SaveRoom(ctx context.Context, room *models.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, roomKey(room.ID), data, s.ttl)
		pipe.SAdd(ctx, roomIndexKey, room.ID)
		if s.ttl > 0 {
			for _, key := range allRoomKeys(room.ID)[1:] {
				pipe.Expire(ctx, key, s.ttl)
			}
		}
		return nil
	})
	return err
}

// TouchRoom refreshes the TTL of every key of the room; keys that do not exist are skipped by Redis.
func (s *RedisStore) TouchRoom(ctx context.Context, roomID string) error {
	if s.ttl <= 0 {
		n, err := s.client.Exists(ctx, roomKey(roomID)).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	}
	keys := allRoomKeys(roomID)
	cmds := make([]*redis.BoolCmd, len(keys))
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, key := range keys {
			cmds[i] = pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !cmds[0].Val() {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) ListRooms(ctx context.Context) ([]*models.Room, error) {
	ids, err := s.client.SMembers(ctx, roomIndexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = roomKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	rooms := make([]*models.Room, 0, len(values))
	var stale []interface{}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		room, err := models.DecodeRoom([]byte(raw), s.defaultRoundSeconds)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if len(stale) > 0 {
		s.client.SRem(ctx, roomIndexKey, stale...)
	}
	return rooms, nil
}

func (s *RedisStore) DeleteRoom(ctx context.Context, roomID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, allRoomKeys(roomID)...)
		pipe.SRem(ctx, roomIndexKey, roomID)
		return nil
	})
	return err
}

// --- members ---

func (s *RedisStore) AddMember(ctx context.Context, roomID, username string) (int64, error) {
	seq, err := s.client.Incr(ctx, joinSeqKey(roomID)).Result()
	if err != nil {
		return 0, err
	}
	pipe := s.client.TxPipeline()
	pipe.ZAddNX(ctx, membersKey(roomID), redis.Z{Score: float64(seq), Member: username})
	card := pipe.ZCard(ctx, membersKey(roomID))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return card.Val(), nil
}

func (s *RedisStore) RemoveMember(ctx context.Context, roomID, username string) (int64, error) {
	pipe := s.client.TxPipeline()
	pipe.ZRem(ctx, membersKey(roomID), username)
	card := pipe.ZCard(ctx, membersKey(roomID))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return card.Val(), nil
}

func (s *RedisStore) Members(ctx context.Context, roomID string) ([]string, error) {
	return s.client.ZRange(ctx, membersKey(roomID), 0, -1).Result()
}

func (s *RedisStore) MemberCount(ctx context.Context, roomID string) (int64, error) {
	return s.client.ZCard(ctx, membersKey(roomID)).Result()
}

func (s *RedisStore) IsMember(ctx context.Context, roomID, username string) (bool, error) {
	err := s.client.ZScore(ctx, membersKey(roomID), username).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return err == nil, err
}

// --- rotation ---

func (s *RedisStore) PushPending(ctx context.Context, roomID string, usernames ...string) error {
	if len(usernames) == 0 {
		return nil
	}
	values := make([]interface{}, len(usernames))
	for i, u := range usernames {
		values[i] = u
	}
	return s.client.RPush(ctx, pendingKey(roomID), values...).Err()
}

func (s *RedisStore) PopPending(ctx context.Context, roomID string) (string, bool, error) {
	username, err := s.client.LPop(ctx, pendingKey(roomID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return username, true, nil
}

func (s *RedisStore) RemovePending(ctx context.Context, roomID, username string) error {
	return s.client.LRem(ctx, pendingKey(roomID), 0, username).Err()
}

func (s *RedisStore) Pending(ctx context.Context, roomID string) ([]string, error) {
	return s.client.LRange(ctx, pendingKey(roomID), 0, -1).Result()
}

func (s *RedisStore) ClearPending(ctx context.Context, roomID string) error {
	return s.client.Del(ctx, pendingKey(roomID)).Err()
}

func (s *RedisStore) UsedKeywords(ctx context.Context, roomID string) ([]string, error) {
	return s.client.SMembers(ctx, usedKey(roomID)).Result()
}

func (s *RedisStore) AddUsedKeyword(ctx context.Context, roomID, keyword string) error {
	return s.client.SAdd(ctx, usedKey(roomID), keyword).Err()
}

func (s *RedisStore) ClearUsedKeywords(ctx context.Context, roomID string) error {
	return s.client.Del(ctx, usedKey(roomID)).Err()
}

// --- scores ---

func (s *RedisStore) IncrScore(ctx context.Context, roomID, username string, delta int64) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.ZIncrBy(ctx, scoresKey(roomID), float64(delta), username)
	s.expire(ctx, pipe, scoresKey(roomID))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int64(incr.Val()), nil
}

// Scores relies on ZREVRANGE ordering: equal scores come back in reverse lexicographic order.
func (s *RedisStore) Scores(ctx context.Context, roomID string, n int) ([]models.ScoreEntry, error) {
	stop := int64(-1)
	if n > 0 {
		stop = int64(n - 1)
	}
	zs, err := s.client.ZRevRangeWithScores(ctx, scoresKey(roomID), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	out := make([]models.ScoreEntry, 0, len(zs))
	for _, z := range zs {
		name, _ := z.Member.(string)
		out = append(out, models.ScoreEntry{Username: name, Score: int64(z.Score)})
	}
	return out, nil
}

func (s *RedisStore) Score(ctx context.Context, roomID, username string) (int64, error) {
	v, err := s.client.ZScore(ctx, scoresKey(roomID), username).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

func (s *RedisStore) ClearScores(ctx context.Context, roomID string) error {
	return s.client.Del(ctx, scoresKey(roomID)).Err()
}

func (s *RedisStore) AddPoint(ctx context.Context, roomID string) (int64, bool, error) {
	v, err := s.client.Get(ctx, addPointKey(roomID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func (s *RedisStore) SetAddPoint(ctx context.Context, roomID string, value int64) error {
	return s.client.Set(ctx, addPointKey(roomID), value, s.ttl).Err()
}

// --- rounds ---

func (s *RedisStore) GetRound(ctx context.Context, roomID string) (*models.RoundState, error) {
	data, err := s.client.Get(ctx, roundKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var round models.RoundState
	if err := json.Unmarshal(data, &round); err != nil {
		return nil, err
	}
	return &round, nil
}

func (s *RedisStore) SaveRound(ctx context.Context, round *models.RoundState) error {
	data, err := json.Marshal(round)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, roundKey(round.RoomID), data, s.ttl).Err()
}

func (s *RedisStore) DeleteRound(ctx context.Context, roomID string) error {
	return s.client.Del(ctx, roundKey(roomID), answeredKey(roomID)).Err()
}

func (s *RedisStore) MarkAnswered(ctx context.Context, roomID, username string) (bool, error) {
	pipe := s.client.TxPipeline()
	add := pipe.SAdd(ctx, answeredKey(roomID), username)
	s.expire(ctx, pipe, answeredKey(roomID))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return add.Val() == 1, nil
}

func (s *RedisStore) Answered(ctx context.Context, roomID string) ([]string, error) {
	return s.client.SMembers(ctx, answeredKey(roomID)).Result()
}

func (s *RedisStore) ClearAnswered(ctx context.Context, roomID string) error {
	return s.client.Del(ctx, answeredKey(roomID)).Err()
}
