package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestTokenRepository(t *testing.T) {
	mr, rdb := newTestClient(t)
	repo := &TokenRepository{RDB: rdb, TTL: time.Minute}
	ctx := context.Background()

	_, err := repo.GetUserToken(ctx, 1)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	require.NoError(t, repo.AddUserToken(ctx, 1, "tok"))
	got, err := repo.GetUserToken(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "tok", got)
	assert.True(t, mr.Exists("login:user:token:1"))

	mr.FastForward(50 * time.Second)
	require.NoError(t, repo.ExtendUserToken(ctx, 1))
	d, err := repo.TokenExpiry(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)

	require.NoError(t, repo.DeleteUserToken(ctx, 1))
	_, err = repo.GetUserToken(ctx, 1)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestTokenRepository_RefreshRotation(t *testing.T) {
	mr, rdb := newTestClient(t)
	repo := &TokenRepository{RDB: rdb, TTL: time.Minute}
	ctx := context.Background()

	// 未登记时任何 jti 都无法轮换
	ok, err := repo.RotateRefreshID(ctx, 1, "a", "b", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetRefreshID(ctx, 1, "a", time.Hour))
	ok, err = repo.RotateRefreshID(ctx, 1, "a", "b", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	got, err := mr.Get("login:user:refresh:1")
	require.NoError(t, err)
	assert.Equal(t, "b", got)
	assert.Equal(t, time.Hour, mr.TTL("login:user:refresh:1"))

	ok, err = repo.RotateRefreshID(ctx, 1, "a", "c", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.AddUserToken(ctx, 1, "tok"))
	require.NoError(t, repo.DeleteUserToken(ctx, 1))
	assert.False(t, mr.Exists("login:user:refresh:1"))
	ok, err = repo.RotateRefreshID(ctx, 1, "b", "d", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmailRepository_TwoPhase(t *testing.T) {
	mr, rdb := newTestClient(t)
	repo := &EmailRepository{RDB: rdb}
	ctx := context.Background()

	require.NoError(t, repo.SavePending(ctx, ScopeRegister, "a@b.c", "123456"))

	// pending 阶段不可用于校验
	_, err := repo.GetConfirmed(ctx, ScopeRegister, "a@b.c")
	assert.ErrorIs(t, err, ErrEmailNotFound)

	require.NoError(t, repo.Confirm(ctx, ScopeRegister, "a@b.c"))
	assert.False(t, mr.Exists("email:code:register:pending:a@b.c"))

	code, err := repo.GetConfirmed(ctx, ScopeRegister, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "123456", code)

	// 另一个 scope 互不影响
	_, err = repo.GetConfirmed(ctx, ScopeReset, "a@b.c")
	assert.ErrorIs(t, err, ErrEmailNotFound)

	require.NoError(t, repo.DeleteConfirmed(ctx, ScopeRegister, "a@b.c"))
	_, err = repo.GetConfirmed(ctx, ScopeRegister, "a@b.c")
	assert.ErrorIs(t, err, ErrEmailNotFound)

	assert.ErrorIs(t, repo.Confirm(ctx, ScopeRegister, "a@b.c"), ErrCodeConfirmedFailed)
}

func TestStatsCache(t *testing.T) {
	mr, rdb := newTestClient(t)
	c := &StatsCache{RDB: rdb}
	ctx := context.Background()

	type stats struct {
		ActiveClubs int64 `json:"active_clubs"`
	}
	var got stats
	hit, err := c.Get(ctx, 9, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, 9, stats{ActiveClubs: 4}))
	hit, err = c.Get(ctx, 9, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int64(4), got.ActiveClubs)

	mr.FastForward(StatsTTL + time.Second)
	hit, _ = c.Get(ctx, 9, &got)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, 9, stats{ActiveClubs: 1}))
	require.NoError(t, c.Invalidate(ctx, 9))
	hit, _ = c.Get(ctx, 9, &got)
	assert.False(t, hit)
}

func TestSettingsRepository(t *testing.T) {
	_, rdb := newTestClient(t)
	repo := &SettingsRepository{RDB: rdb}
	ctx := context.Background()

	_, set, err := repo.ModerationEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, set)

	require.NoError(t, repo.SetModerationEnabled(ctx, false))
	enabled, set, err := repo.ModerationEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, set)
	assert.False(t, enabled)

	require.NoError(t, repo.SetModerationEnabled(ctx, true))
	enabled, _, _ = repo.ModerationEnabled(ctx)
	assert.True(t, enabled)
}

func TestBroker_PublishListen(t *testing.T) {
	_, rdb := newTestClient(t)
	b := &Broker{RDB: rdb, Channel: "test:rt"}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 1)
	ready := make(chan struct{})
	go func() {
		close(ready)
		_ = b.Listen(ctx, func(p []byte) { got <- string(p) })
	}()
	<-ready

	// 订阅建立是异步的，循环发布直到收到
	deadline := time.After(2 * time.Second)
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case msg := <-got:
			assert.Equal(t, "hello", msg)
			return
		case <-tick.C:
			require.NoError(t, b.Publish(ctx, []byte("hello")))
		case <-deadline:
			t.Fatal("no message received")
		}
	}
}
