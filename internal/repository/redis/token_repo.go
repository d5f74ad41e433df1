package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrRedisUnavailable = errors.New("redis unavailable")
	ErrExtendFailed     = errors.New("token extend failed")
	ErrTokenDeleted     = errors.New("token delete failed")
)

const (
	UserTokenPrefix   = "login:user:token"
	UserRefreshPrefix = "login:user:refresh"
	UserTokenExpire   = 30 * time.Minute
)

// rotateRefreshScript 当前 jti 与 ARGV[1] 相同才替换为 ARGV[2]
var rotateRefreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	return 1
end
return 0
`)

// TokenRepository 每个用户只保存一个有效的 access token
type TokenRepository struct {
	RDB *redis.Client
	TTL time.Duration
}

func (r *TokenRepository) key(userID uint64) string {
	return fmt.Sprintf("%s:%d", UserTokenPrefix, userID)
}

func (r *TokenRepository) refreshKey(userID uint64) string {
	return fmt.Sprintf("%s:%d", UserRefreshPrefix, userID)
}

func (r *TokenRepository) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return UserTokenExpire
}

func (r *TokenRepository) AddUserToken(ctx context.Context, userID uint64, token string) error {
	if err := r.RDB.Set(ctx, r.key(userID), token, r.ttl()).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}

func (r *TokenRepository) GetUserToken(ctx context.Context, userID uint64) (string, error) {
	token, err := r.RDB.Get(ctx, r.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", ErrRedisUnavailable
	}
	return token, nil
}

// ExtendUserToken 滑动续期
func (r *TokenRepository) ExtendUserToken(ctx context.Context, userID uint64) error {
	if err := r.RDB.Expire(ctx, r.key(userID), r.ttl()).Err(); err != nil {
		return ErrExtendFailed
	}
	return nil
}

// TokenExpiry 返回 token 剩余有效期
func (r *TokenRepository) TokenExpiry(ctx context.Context, userID uint64) (time.Duration, error) {
	d, err := r.RDB.TTL(ctx, r.key(userID)).Result()
	if err != nil {
		return 0, ErrRedisUnavailable
	}
	return d, nil
}

// SetRefreshID 记录当前唯一有效的 refresh token jti，新登录会覆盖旧值
func (r *TokenRepository) SetRefreshID(ctx context.Context, userID uint64, jti string, ttl time.Duration) error {
	if err := r.RDB.Set(ctx, r.refreshKey(userID), jti, ttl).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}

// RotateRefreshID 原子地把 oldJTI 换成 newJTI；oldJTI 已失效时返回 false
func (r *TokenRepository) RotateRefreshID(ctx context.Context, userID uint64, oldJTI, newJTI string, ttl time.Duration) (bool, error) {
	n, err := rotateRefreshScript.Run(ctx, r.RDB, []string{r.refreshKey(userID)}, oldJTI, newJTI, ttl.Milliseconds()).Int()
	if err != nil {
		return false, ErrRedisUnavailable
	}
	return n == 1, nil
}

// DeleteUserToken 同时作废 access token 与 refresh token
func (r *TokenRepository) DeleteUserToken(ctx context.Context, userID uint64) error {
	if err := r.RDB.Del(ctx, r.key(userID), r.refreshKey(userID)).Err(); err != nil {
		return ErrTokenDeleted
	}
	return nil
}
