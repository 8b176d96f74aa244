package service

import (
	"context"
	"edu_quiz_backend/pkg/logger"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StartLocker 对同一 (user, education) 的开始请求做互斥
type StartLocker interface {
	// Lock 阻塞直到获得锁或 ctx 结束，返回释放函数
	Lock(ctx context.Context, key string) (func(), error)
}

// LocalStartLocker 单实例部署使用的进程内锁
type LocalStartLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalStartLocker() *LocalStartLocker {
	return &LocalStartLocker{locks: make(map[string]*keyedLock)}
}

func (l *LocalStartLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyedLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, kl, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, kl, true) })
	}, nil
}

func (l *LocalStartLocker) release(key string, kl *keyedLock, held bool) {
	if held {
		<-kl.ch
	}
	l.mu.Lock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

// 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStartLocker 多实例部署使用的分布式锁（SETNX + TTL）
type RedisStartLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

func NewRedisStartLocker(client redis.UniversalClient, ttl time.Duration) *RedisStartLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisStartLocker{
		client: client,
		ttl:    ttl,
		retry:  50 * time.Millisecond,
		prefix: "quiz:start-lock:",
	}
}

func (l *RedisStartLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// 请求 ctx 可能已取消，释放使用独立 ctx
			rctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			err := releaseScript.Run(rctx, l.client, []string{redisKey}, token).Err()
			if err != nil && !errors.Is(err, redis.Nil) {
				logger.Log.Warn("释放开始锁失败", zap.String("key", redisKey), zap.Error(err))
			}
		})
	}, nil
}
