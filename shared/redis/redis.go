package redis

import (
	"context"
	"fmt"
	"time"

	"speechvault/backend/pkg/config"

	"github.com/redis/go-redis/v9"
)

// Client wraps the redis connection used for streaming-session presence.
// Each open streaming session registers itself with a TTL so any instance
// can tell which sessions are live.
type Client struct {
	client     *redis.Client
	sessionTTL time.Duration
}

// NewClient creates a redis client from configuration
func NewClient() *Client {
	cfg := config.Get()
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return &Client{client: client, sessionTTL: cfg.Redis.SessionTTL}
}

// Ping checks connectivity
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Set stores a value with an expiration
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

// Del removes a key
func (c *Client) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("stream:session:%s", sessionID)
}

// RegisterSession marks a streaming session as live
func (c *Client) RegisterSession(ctx context.Context, sessionID, userID string) error {
	return c.client.Set(ctx, sessionKey(sessionID), userID, c.sessionTTL).Err()
}

// TouchSession extends the TTL of a live session
func (c *Client) TouchSession(ctx context.Context, sessionID string) error {
	return c.client.Expire(ctx, sessionKey(sessionID), c.sessionTTL).Err()
}

// UnregisterSession removes a finished session
func (c *Client) UnregisterSession(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, sessionKey(sessionID)).Err()
}

// SessionOwner returns the user owning a live session, or "" if the
// session is not registered
func (c *Client) SessionOwner(ctx context.Context, sessionID string) (string, error) {
	owner, err := c.client.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return owner, err
}
