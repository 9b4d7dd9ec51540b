package cache

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// mesma chave lida pelo pickem-service
const keyStandings = "standings:current"

// RedisCache grava o snapshot do placar; sem TTL, o worker é a fonte de
// atualização e sobrescreve a cada liquidação
type RedisCache struct {
	R *redis.Client
}

func NewRedisCache(r *redis.Client) *RedisCache {
	return &RedisCache{R: r}
}

func (c *RedisCache) SetStandings(ctx context.Context, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, keyStandings, b, 0).Err()
}
