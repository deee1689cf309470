package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker 单个互斥锁句柄。
type Locker interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
}

// Provider 按 key 派发互斥锁；key 约定为任务实例 ID。
type Provider interface {
	New(key string) Locker
}

// ErrLockTimeout 在等待窗口内未能取得锁。
var ErrLockTimeout = errors.New("lock: acquire timeout")

// RedisProvider 基于 Redis SET NX PX 的分布式锁实现。
type RedisProvider struct {
	rdb     redis.UniversalClient
	ttl     time.Duration
	maxWait time.Duration
	retry   time.Duration
}

// NewRedisProvider 构造 Redis 锁提供方。
// 参数：
//   - rdb：go-redis 客户端；
//   - ttl：锁的自动过期时间，防止持有方崩溃后死锁；
//   - maxWait：抢锁最长等待时间，超时返回 ErrLockTimeout。
func NewRedisProvider(rdb redis.UniversalClient, ttl, maxWait time.Duration) *RedisProvider {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxWait <= 0 {
		maxWait = 10 * time.Second
	}
	return &RedisProvider{rdb: rdb, ttl: ttl, maxWait: maxWait, retry: 20 * time.Millisecond}
}

// New 实现 Provider。
func (p *RedisProvider) New(key string) Locker {
	return &redisLock{p: p, key: "flowtask:lock:" + key, token: uuid.NewString()}
}

type redisLock struct {
	p     *RedisProvider
	key   string
	token string
}

// unlockScript 仅当 value 仍是自己的 token 时删除，避免释放他人持有的锁。
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0
`)

// Lock 抢占锁，失败按固定间隔重试直到 maxWait。
func (l *redisLock) Lock(ctx context.Context) error {
	deadline := time.Now().Add(l.p.maxWait)
	for {
		ok, err := l.p.rdb.SetNX(ctx, l.key, l.token, l.p.ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.p.retry):
		}
	}
}

// Unlock 释放锁；token 不匹配（已过期被他人抢占）时静默返回。
func (l *redisLock) Unlock(ctx context.Context) error {
	return unlockScript.Run(ctx, l.p.rdb, []string{l.key}, l.token).Err()
}
