package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "order_idem:"

// Claimer records client-supplied idempotency keys in Redis so a retried
// checkout after a network timeout cannot create a duplicate order. The
// claim expires after TTL; a repeat within the window returns the order id
// recorded by the first claim.
type Claimer struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewClaimer(client *redis.Client, ttl time.Duration) *Claimer {
	return &Claimer{Client: client, TTL: ttl}
}

func (c *Claimer) Claim(ctx context.Context, key, orderID string) (bool, string, error) {
	fullKey := keyPrefix + key

	claimed, err := c.Client.SetNX(ctx, fullKey, orderID, c.TTL).Result()
	if err != nil {
		return false, "", err
	}
	if claimed {
		return true, orderID, nil
	}

	existing, err := c.Client.Get(ctx, fullKey).Result()
	if err == redis.Nil {
		// Claim expired between SetNX and Get; treat as a fresh claim.
		return true, orderID, nil
	}
	if err != nil {
		return false, "", err
	}
	return false, existing, nil
}

// Release drops a claim, letting the key be reused (used when the order
// insert itself fails so the client can retry).
func (c *Claimer) Release(ctx context.Context, key string) error {
	return c.Client.Del(ctx, keyPrefix+key).Err()
}
