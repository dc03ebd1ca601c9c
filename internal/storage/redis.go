package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"emberfall/pkg/world"
)

// worldTTL bounds how long an abandoned session lingers in Redis.
const worldTTL = 24 * time.Hour

// RedisStorage implements Storage using Redis for world snapshots and
// the filesystem for layout files.
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string
}

var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance.
func NewRedisStorage(redisURL string, dataDir string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStorage{
		client:  rdb,
		logger:  logger,
		dataDir: dataDir,
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available during startup.
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// World operations (Redis-backed)

func (r *RedisStorage) SaveWorld(ctx context.Context, id uuid.UUID, w *world.World) error {
	w.UpdatedAt = time.Now()

	data, err := json.Marshal(w)
	if err != nil {
		r.logger.Error("Failed to marshal world", "uuid", id, "error", err)
		return fmt.Errorf("failed to marshal world: %w", err)
	}

	key := "world:" + id.String()
	if err := r.client.Set(ctx, key, string(data), worldTTL).Err(); err != nil {
		r.logger.Error("Failed to save world", "uuid", id, "error", err)
		return fmt.Errorf("failed to save world: %w", err)
	}

	return nil
}

func (r *RedisStorage) LoadWorld(ctx context.Context, id uuid.UUID) (*world.World, error) {
	key := "world:" + id.String()
	cmd := r.client.Get(ctx, key)
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			r.logger.Warn("World not found", "uuid", id)
			return nil, nil
		}
		r.logger.Error("Failed to load world", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load world: %w", err)
	}

	data := cmd.Val()
	if data == "" {
		r.logger.Warn("World not found", "uuid", id)
		return nil, nil
	}

	var w world.World
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		r.logger.Error("Failed to unmarshal world", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal world: %w", err)
	}

	return &w, nil
}

func (r *RedisStorage) DeleteWorld(ctx context.Context, id uuid.UUID) error {
	key := "world:" + id.String()
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("Failed to delete world", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete world: %w", err)
	}
	return nil
}

// Layout operations (filesystem-backed)

func (r *RedisStorage) ListLayouts(ctx context.Context) (map[string]string, error) {
	layoutsDir := filepath.Join(r.dataDir, "layouts")
	layouts := make(map[string]string)

	err := filepath.WalkDir(layoutsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}

		l, err := world.LoadLayout(path)
		if err != nil {
			r.logger.Warn("Failed to read layout file", "path", path, "error", err)
			return nil
		}

		layouts[l.Name] = filepath.Base(path)
		return nil
	})

	if err != nil {
		r.logger.Error("Failed to walk layouts directory", "error", err)
		return nil, fmt.Errorf("failed to list layouts: %w", err)
	}

	return layouts, nil
}

func (r *RedisStorage) GetLayout(ctx context.Context, filename string) (*world.Layout, error) {
	path := filepath.Join(r.dataDir, "layouts", filename)

	l, err := world.LoadLayout(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("layout not found: %s", filename)
		}
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}

	return l, nil
}
