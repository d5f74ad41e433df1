package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	StatsKeyPrefix = "stats:user"
	StatsTTL       = 30 * time.Second
)

// StatsCache 仪表盘统计短期缓存，成员关系变化时删除
type StatsCache struct {
	RDB *redis.Client
}

func (c *StatsCache) key(userID uint64) string {
	return fmt.Sprintf("%s:%d", StatsKeyPrefix, userID)
}

// Get 命中时把缓存反序列化到 dst，返回是否命中
func (c *StatsCache) Get(ctx context.Context, userID uint64, dst any) (bool, error) {
	raw, err := c.RDB.Get(ctx, c.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err = json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *StatsCache) Set(ctx context.Context, userID uint64, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.RDB.Set(ctx, c.key(userID), raw, StatsTTL).Err()
}

func (c *StatsCache) Invalidate(ctx context.Context, userID uint64) error {
	if err := c.RDB.Del(ctx, c.key(userID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
