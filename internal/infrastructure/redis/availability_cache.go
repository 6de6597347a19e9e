package redis

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/jhoicas/pos-stock-core/internal/application/ledger"
)

// TTL corto: el caché solo amortigua ráfagas de lectura entre escrituras;
// la invalidación post-commit es la vía principal de frescura.
const availabilityTTL = 30 * time.Second

var _ ledger.AvailabilityCache = (*AvailabilityCache)(nil)

// AvailabilityCache caché de disponibilidad sobre Redis. Optimización externa
// al núcleo: la corrección del libro nunca depende de él.
type AvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache construye el caché.
func NewAvailabilityCache(addr, password string, db int) *AvailabilityCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &AvailabilityCache{client: client}
}

// Ping verifica la conexión al arrancar.
func (c *AvailabilityCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close cierra la conexión.
func (c *AvailabilityCache) Close() error {
	return c.client.Close()
}

func key(productID string) string {
	return "stock:availability:" + productID
}

// Get devuelve la disponibilidad cacheada del producto, si existe.
func (c *AvailabilityCache) Get(ctx context.Context, productID string) (*ledger.AvailabilityDTO, bool, error) {
	val, err := c.client.Get(ctx, key(productID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var dto ledger.AvailabilityDTO
	if err := json.Unmarshal([]byte(val), &dto); err != nil {
		return nil, false, err
	}
	return &dto, true, nil
}

// Set guarda la disponibilidad con TTL.
func (c *AvailabilityCache) Set(ctx context.Context, productID string, value *ledger.AvailabilityDTO) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(productID), payload, availabilityTTL).Err()
}

// Invalidate borra la entrada tras una escritura confirmada del libro.
func (c *AvailabilityCache) Invalidate(ctx context.Context, productID string) error {
	return c.client.Del(ctx, key(productID)).Err()
}
