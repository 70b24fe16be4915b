package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotCache mirrors the latest board snapshot of every live game into
// Redis so external dashboards can read state without touching the server.
// A nil cache is a no-op; the service runs fine without Redis.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(url string, ttl time.Duration) *SnapshotCache {
	opts, err := redis.ParseURL(url)
	if err != nil {
		// Plain host:port is accepted too.
		opts = &redis.Options{Addr: url}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("redis disabled: %v", err)
		_ = client.Close()
		return nil
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

func (c *SnapshotCache) key(gameID string) string {
	return "game:" + gameID
}

func (c *SnapshotCache) SetSnapshot(ctx context.Context, gameID string, snapshot any) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(gameID), data, c.ttl).Err(); err != nil {
		log.Printf("redis set failed: %v", err)
	}
}

func (c *SnapshotCache) Delete(ctx context.Context, gameID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, c.key(gameID)).Err(); err != nil {
		log.Printf("redis del failed: %v", err)
	}
}

func (c *SnapshotCache) Close() {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Close()
}
