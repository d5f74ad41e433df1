package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultEmailCodeTTL = 5 * time.Minute
	EmailCodePrefix     = "email:code"

	ScopeRegister = "register"
	ScopeReset    = "reset"

	// 两阶段键
	PendingSuffix   = "pending"
	ConfirmedSuffix = "confirmed"
)

var (
	ErrEmailNotFound       = errors.New("email not found")
	ErrEmailCodeDelFailed  = errors.New("email code delete failed")
	ErrCodePendingFailed   = errors.New("code pending failed")
	ErrCodeConfirmedFailed = errors.New("code confirmed failed")
)

// 原子执行：取值+写入目标+设置 TTL+删除源
var confirmScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if not val then
  return 0
end
redis.call("SET", KEYS[2], val, "PX", ARGV[1])
redis.call("DEL", KEYS[1])
return 1
`)

// EmailRepository 验证码先写 pending，邮件发送成功后转为 confirmed，校验只认 confirmed
type EmailRepository struct {
	RDB *redis.Client
}

func codeKey(scope, stage, email string) string {
	return fmt.Sprintf("%s:%s:%s:%s", EmailCodePrefix, scope, stage, email)
}

func (e *EmailRepository) SavePending(ctx context.Context, scope, email, code string) error {
	if err := e.RDB.Set(ctx, codeKey(scope, PendingSuffix, email), code, DefaultEmailCodeTTL).Err(); err != nil {
		return ErrCodePendingFailed
	}
	return nil
}

// Confirm 将 pending 转为 confirmed（重置 TTL）
func (e *EmailRepository) Confirm(ctx context.Context, scope, email string) error {
	px := int64(DefaultEmailCodeTTL / time.Millisecond)
	ok, err := confirmScript.Run(ctx, e.RDB,
		[]string{codeKey(scope, PendingSuffix, email), codeKey(scope, ConfirmedSuffix, email)}, px).Int()
	if err != nil || ok != 1 {
		return ErrCodeConfirmedFailed
	}
	return nil
}

// DeletePending 删除 pending 键（幂等）
func (e *EmailRepository) DeletePending(ctx context.Context, scope, email string) error {
	if err := e.RDB.Del(ctx, codeKey(scope, PendingSuffix, email)).Err(); err != nil {
		return ErrEmailCodeDelFailed
	}
	return nil
}

// GetConfirmed verify 时用
func (e *EmailRepository) GetConfirmed(ctx context.Context, scope, email string) (string, error) {
	val, err := e.RDB.Get(ctx, codeKey(scope, ConfirmedSuffix, email)).Result()
	if err != nil {
		return "", ErrEmailNotFound
	}
	return val, nil
}

// DeleteConfirmed 验证码一次性使用
func (e *EmailRepository) DeleteConfirmed(ctx context.Context, scope, email string) error {
	if err := e.RDB.Del(ctx, codeKey(scope, ConfirmedSuffix, email)).Err(); err != nil {
		return ErrEmailCodeDelFailed
	}
	return nil
}
