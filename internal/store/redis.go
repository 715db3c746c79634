package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	gameKeyPrefix   = "spades:game:"
	playerKeyPrefix = "spades:player:"
	gameIndexKey    = "spades:games"
)

// RedisStore persists game snapshots and player counters in Redis. Each
// game serializes to a single JSON value so a snapshot write is atomic,
// matching the engine's no-partial-effects rule.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store backed by the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Ping verifies connectivity.
func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

// SaveGame writes the full game snapshot and indexes its ID.
func (rs *RedisStore) SaveGame(ctx context.Context, rec *GameRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal game %s: %w", rec.GameID, err)
	}

	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, gameKeyPrefix+rec.GameID, data, 0)
	pipe.SAdd(ctx, gameIndexKey, rec.GameID)
	_, err = pipe.Exec(ctx)
	return err
}

// LoadGame reads a game snapshot.
func (rs *RedisStore) LoadGame(ctx context.Context, gameID string) (*GameRecord, error) {
	data, err := rs.client.Get(ctx, gameKeyPrefix+gameID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var rec GameRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal game %s: %w", gameID, err)
	}
	return &rec, nil
}

// DeleteGame removes a game snapshot and drops it from the index.
func (rs *RedisStore) DeleteGame(ctx context.Context, gameID string) error {
	pipe := rs.client.TxPipeline()
	pipe.Del(ctx, gameKeyPrefix+gameID)
	pipe.SRem(ctx, gameIndexKey, gameID)
	_, err := pipe.Exec(ctx)
	return err
}

// ListGames returns the IDs of all persisted games.
func (rs *RedisStore) ListGames(ctx context.Context) ([]string, error) {
	return rs.client.SMembers(ctx, gameIndexKey).Result()
}

// RecordResult increments win/loss counters for both partnerships.
func (rs *RedisStore) RecordResult(ctx context.Context, winners, losers []string) error {
	pipe := rs.client.TxPipeline()
	for _, id := range winners {
		pipe.HIncrBy(ctx, playerKeyPrefix+id, "wins", 1)
	}
	for _, id := range losers {
		pipe.HIncrBy(ctx, playerKeyPrefix+id, "losses", 1)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// PlayerRecord reads a player's win/loss counters. A player with no
// recorded games reads as 0/0.
func (rs *RedisStore) PlayerRecord(ctx context.Context, playerID string) (wins, losses int, err error) {
	data, err := rs.client.HGetAll(ctx, playerKeyPrefix+playerID).Result()
	if err != nil {
		return 0, 0, err
	}
	wins, _ = strconv.Atoi(data["wins"])
	losses, _ = strconv.Atoi(data["losses"])
	return wins, losses, nil
}
