package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Checkpoint holds the last processed modification time of the watched
// page. An empty string means nothing has been processed yet.
type Checkpoint interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, value string) error
	Close() error
}

// FileCheckpoint keeps the checkpoint in a plain text file that is
// overwritten on every save.
type FileCheckpoint struct {
	path string
}

func NewFileCheckpoint(path string) *FileCheckpoint {
	return &FileCheckpoint{path: path}
}

func (c *FileCheckpoint) Load(ctx context.Context) (string, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read checkpoint file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (c *FileCheckpoint) Save(ctx context.Context, value string) error {
	if err := os.WriteFile(c.path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("write checkpoint file: %w", err)
	}
	return nil
}

func (c *FileCheckpoint) Close() error { return nil }

// RedisCheckpoint keeps the checkpoint under a single Redis key so several
// hosts can share it.
type RedisCheckpoint struct {
	client redis.UniversalClient
	key    string
}

// NewRedisCheckpoint connects to redisURL and verifies the connection.
func NewRedisCheckpoint(ctx context.Context, redisURL, key string) (*RedisCheckpoint, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisCheckpointWithClient(client, key), nil
}

func NewRedisCheckpointWithClient(client redis.UniversalClient, key string) *RedisCheckpoint {
	return &RedisCheckpoint{client: client, key: key}
}

func (c *RedisCheckpoint) Load(ctx context.Context) (string, error) {
	value, err := c.client.Get(ctx, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get checkpoint: %w", err)
	}
	return value, nil
}

func (c *RedisCheckpoint) Save(ctx context.Context, value string) error {
	if err := c.client.Set(ctx, c.key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set checkpoint: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (c *RedisCheckpoint) Close() error {
	return c.client.Close()
}
