package utils

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter đếm số lần đăng nhập thất bại theo khoá (email) trong một cửa sổ thời gian.
type LoginLimiter interface {
	Blocked(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// NoopLimiter không bao giờ chặn.
type NoopLimiter struct{}

func (NoopLimiter) Blocked(context.Context, string) (bool, error) { return false, nil }
func (NoopLimiter) Fail(context.Context, string) error            { return nil }
func (NoopLimiter) Reset(context.Context, string) error           { return nil }

type RedisLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, max: max, window: window}
}

func loginKey(key string) string {
	return "login:fail:" + key
}

func (l *RedisLimiter) Blocked(ctx context.Context, key string) (bool, error) {
	value, err := l.client.Get(ctx, loginKey(key)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return false, err
	}
	return n >= l.max, nil
}

// Fail đặt TTL và tăng bộ đếm trong cùng một MULTI, nên khoá luôn có hạn.
func (l *RedisLimiter) Fail(ctx context.Context, key string) error {
	k := loginKey(key)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, l.window)
		pipe.Incr(ctx, k)
		return nil
	})
	return err
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, loginKey(key)).Err()
}

type memoryCounter struct {
	count int
	start time.Time
}

// MemoryLimiter là bản trong tiến trình, dùng khi không có Redis.
type MemoryLimiter struct {
	mu        sync.Mutex
	counters  map[string]memoryCounter
	max       int
	window    time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		counters: make(map[string]memoryCounter),
		max:      max,
		window:   window,
		now:      time.Now,
	}
}

func (l *MemoryLimiter) current(key string) memoryCounter {
	c, ok := l.counters[key]
	if ok && l.now().Sub(c.start) >= l.window {
		delete(l.counters, key)
		return memoryCounter{}
	}
	return c
}

// sweep xoá các bộ đếm đã hết cửa sổ, tối đa một lần mỗi window.
func (l *MemoryLimiter) sweep() {
	now := l.now()
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for k, c := range l.counters {
		if now.Sub(c.start) >= l.window {
			delete(l.counters, k)
		}
	}
}

func (l *MemoryLimiter) Blocked(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current(key).count >= l.max, nil
}

func (l *MemoryLimiter) Fail(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep()
	c := l.current(key)
	if c.count == 0 {
		c.start = l.now()
	}
	c.count++
	l.counters[key] = c
	return nil
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counters, key)
	return nil
}
