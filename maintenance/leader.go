package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLeader is a distributed Leader lock backed by Redis SETNX,
// released only by the holder via an atomic compare-and-delete Lua
// script. Used to ensure only one scheduler instance in a federation
// runs its maintenance tick (every registered job) at a time.
type RedisLeader struct {
	client *redis.Client
	ctx    context.Context
	key    string
	token  string
	ttl    time.Duration
}

func NewRedisLeader(client *redis.Client, lockName string, ttl time.Duration) *RedisLeader {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLeader{
		client: client,
		ctx:    context.Background(),
		key:    fmt.Sprintf("sls:maintenance-lock:%s", lockName),
		token:  uuid.New().String(),
		ttl:    ttl,
	}
}

func (l *RedisLeader) Acquire() (bool, error) {
	return l.client.SetNX(l.ctx, l.key, l.token, l.ttl).Result()
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`)

func (l *RedisLeader) Release() error {
	result, err := releaseScript.Run(l.ctx, l.client, []string{l.key}, l.token).Result()
	if err != nil {
		return err
	}
	if n, ok := result.(int64); ok && n == 0 {
		return fmt.Errorf("lock not owned: %s", l.key)
	}
	return nil
}

var _ Leader = (*RedisLeader)(nil)
