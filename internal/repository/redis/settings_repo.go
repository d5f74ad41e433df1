package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const ModerationEnabledKey = "settings:moderation:enabled"

// SettingsRepository 管理员可在线修改的开关
type SettingsRepository struct {
	RDB *redis.Client
}

// ModerationEnabled 返回 (值, 是否设置过)，未设置时由调用方回落到配置文件
func (r *SettingsRepository) ModerationEnabled(ctx context.Context) (bool, bool, error) {
	v, err := r.RDB.Get(ctx, ModerationEnabledKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return v == "1", true, nil
}

func (r *SettingsRepository) SetModerationEnabled(ctx context.Context, enabled bool) error {
	v := "0"
	if enabled {
		v = "1"
	}
	return r.RDB.Set(ctx, ModerationEnabledKey, v, 0).Err()
}
