package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	id "kycflow/pkg/domain"
)

const keyPrefix = "attempts:"

// incrementBelow bumps a hash field only while it is below ARGV[2].
// Returns {count, 1} on increment and {count, 0} when the ceiling was hit.
var incrementBelow = redis.NewScript(`
local current = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
if current >= tonumber(ARGV[2]) then
	return {current, 0}
end
return {redis.call('HINCRBY', KEYS[1], ARGV[1], 1), 1}
`)

// RedisStore keeps one hash per application with a field per step.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(appID id.ApplicationID) string {
	return keyPrefix + appID.String()
}

func (s *RedisStore) Increment(ctx context.Context, appID id.ApplicationID, step int) (int, error) {
	n, err := s.client.HIncrBy(ctx, redisKey(appID), strconv.Itoa(step), 1).Result()
	if err != nil {
		return 0, fmt.Errorf("increment attempts: %w", err)
	}
	return int(n), nil
}

func (s *RedisStore) Count(ctx context.Context, appID id.ApplicationID, step int) (int, error) {
	n, err := s.client.HGet(ctx, redisKey(appID), strconv.Itoa(step)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func (s *RedisStore) IncrementBelow(ctx context.Context, appID id.ApplicationID, step, max int) (int, bool, error) {
	res, err := incrementBelow.Run(ctx, s.client, []string{redisKey(appID)}, strconv.Itoa(step), max).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("consume attempt: %w", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("consume attempt: unexpected script reply %v", res)
	}
	return int(res[0]), res[1] == 1, nil
}
