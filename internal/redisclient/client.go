package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/adjust_stock.lua
var adjustStockScript string

//go:embed scripts/guard_stock.lua
var guardStockScript string

// Client mirrors product stock quantities for fast reads and caches the
// live collection snapshots served to subscription consumers. The
// database stays canonical; everything here is rebuildable.
type Client struct {
	rdb          *redis.Client
	adjustScript *redis.Script
	guardScript  *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:          rdb,
		adjustScript: redis.NewScript(adjustStockScript),
		guardScript:  redis.NewScript(guardStockScript),
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func stockKey(scopeKey, productID string) string {
	return fmt.Sprintf("stock:%s:%s", scopeKey, productID)
}

func snapshotKey(scopeKey, collection string) string {
	return fmt.Sprintf("snapshot:%s:%s", scopeKey, collection)
}

// InitStock seeds the mirrored quantity for a product.
func (c *Client) InitStock(ctx context.Context, scopeKey, productID string, quantity int) error {
	return c.rdb.Set(ctx, stockKey(scopeKey, productID), quantity, 0).Err()
}

// AdjustStock atomically applies a delta to the mirrored quantity.
// Returns the new quantity and whether the mirror held an entry.
func (c *Client) AdjustStock(ctx context.Context, scopeKey, productID string, delta int) (int64, bool, error) {
	result, err := c.adjustScript.Run(ctx, c.rdb, []string{stockKey(scopeKey, productID)}, delta).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("adjust stock script failed: %w", err)
	}

	quantity, ok := result.(int64)
	if !ok {
		return 0, false, fmt.Errorf("unexpected script result type")
	}
	return quantity, true, nil
}

// GuardStock checks the mirrored quantity against a requested amount.
// mirrored=false means the mirror has no entry and the database is the
// only authority.
func (c *Client) GuardStock(ctx context.Context, scopeKey, productID string, quantity int) (sufficient, mirrored bool, err error) {
	result, err := c.guardScript.Run(ctx, c.rdb, []string{stockKey(scopeKey, productID)}, quantity).Result()
	if err != nil {
		return false, false, fmt.Errorf("guard stock script failed: %w", err)
	}

	verdict, ok := result.(int64)
	if !ok {
		return false, false, fmt.Errorf("unexpected script result type")
	}
	if verdict < 0 {
		return false, false, nil
	}
	return verdict == 1, true, nil
}

// DropStock removes the mirrored quantity for a product.
func (c *Client) DropStock(ctx context.Context, scopeKey, productID string) error {
	return c.rdb.Del(ctx, stockKey(scopeKey, productID)).Err()
}

// SetSnapshot stores the serialized live record list for a collection.
// Each write replaces the whole value; readers always see a complete
// snapshot, never a partial diff.
func (c *Client) SetSnapshot(ctx context.Context, scopeKey, collection string, payload []byte) error {
	return c.rdb.Set(ctx, snapshotKey(scopeKey, collection), payload, 0).Err()
}

// GetSnapshot retrieves the cached snapshot. A missing key returns
// found=false so callers can fall back to the database.
func (c *Client) GetSnapshot(ctx context.Context, scopeKey, collection string) ([]byte, bool, error) {
	payload, err := c.rdb.Get(ctx, snapshotKey(scopeKey, collection)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}
