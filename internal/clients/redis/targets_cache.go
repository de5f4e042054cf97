package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/nutripath-backend/internal/journey/conditions"
	"github.com/yungbote/nutripath-backend/internal/pkg/logger"
)

// TargetsCache keeps resolved per-user nutrition targets in Redis so journey
// evaluation doesn't hit the targets table on every read. Optional: callers
// must tolerate a nil cache.
type TargetsCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*conditions.Targets, error)
	Set(ctx context.Context, userID uuid.UUID, t conditions.Targets) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
	Close() error
}

type targetsCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewTargetsCache(log *logger.Logger) (TargetsCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &targetsCache{
		log: log.With("service", "RedisTargetsCache"),
		rdb: rdb,
		ttl: 5 * time.Minute,
	}, nil
}

func key(userID uuid.UUID) string {
	return "targets:" + userID.String()
}

func (c *targetsCache) Get(ctx context.Context, userID uuid.UUID) (*conditions.Targets, error) {
	if c == nil || c.rdb == nil {
		return nil, nil
	}
	raw, err := c.rdb.Get(ctx, key(userID)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var t conditions.Targets
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *targetsCache) Set(ctx context.Context, userID uuid.UUID, t conditions.Targets) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key(userID), raw, c.ttl).Err()
}

func (c *targetsCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, key(userID)).Err()
}

func (c *targetsCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
