package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// chave compartilhada com o standings-worker
const keyStandings = "standings:current"

type Cache struct{ R *redis.Client }

func New(r *redis.Client) *Cache { return &Cache{R: r} }

func (c *Cache) GetStandings(ctx context.Context, dst any) (bool, error) {
	b, err := c.R.Get(ctx, keyStandings).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) SetStandings(ctx context.Context, v any, ttl time.Duration) error {
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, keyStandings, b, ttl).Err()
}
