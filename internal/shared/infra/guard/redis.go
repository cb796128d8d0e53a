package guard

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	listingDomain "github.com/davicafu/carstream/internal/listing/domain"
)

// Prefijo común para no colisionar con otras claves del mismo Redis.
const keyPrefix = "listing:dedup:"

// pendingTTL acota cuánto puede quedar una clave en estado pendiente
// si el proceso muere entre Begin y Commit/Release.
const pendingTTL = 5 * time.Minute

// RedisGuard implementa la guarda de idempotencia sobre Redis con
// SET NX, compartible entre varias instancias del pipeline.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

var _ listingDomain.IdempotenceGuard = (*RedisGuard)(nil)

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl}
}

// Begin reclama la clave con SET NX: solo la primera llamada gana.
func (g *RedisGuard) Begin(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, keyPrefix+key, "pending", pendingTTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Commit consolida la clave con el TTL largo de deduplicación.
func (g *RedisGuard) Commit(ctx context.Context, key string) error {
	return g.client.Set(ctx, keyPrefix+key, "done", g.ttl).Err()
}

// Release libera la clave para permitir el reintento de una reentrega.
func (g *RedisGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, keyPrefix+key).Err()
}
