package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"craz-web-meta/internal/repository"
	"craz-web-meta/internal/store"
)

// ── 测试辅助 ──

// testClock 手动拨动的时钟，服务与内存存储共用
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 5, 20, 8, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func setupTestInviteService(st store.Store, clock *testClock) *inviteService {
	svc := NewInviteService(repository.NewRepository(st), 50, nil, zap.NewNop()).(*inviteService)
	svc.now = clock.Now
	return svc
}

// errUnreachable 模拟网络故障
var errUnreachable = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

// faultyStore 在指定操作上注入错误，其余操作委托给内存存储
type faultyStore struct {
	*store.Memory

	mu        sync.Mutex
	failGet   bool
	failSCard bool
	failSAdd  bool
	failDel   bool
	failSRem  bool
	failCAS   bool
	failSet   bool
}

func (f *faultyStore) fail(flag *bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if *flag {
		return store.Unavailable(errUnreachable)
	}
	return nil
}

func (f *faultyStore) Get(ctx context.Context, key string) (string, error) {
	if err := f.fail(&f.failGet); err != nil {
		return "", err
	}
	return f.Memory.Get(ctx, key)
}

func (f *faultyStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := f.fail(&f.failSet); err != nil {
		return err
	}
	return f.Memory.Set(ctx, key, value, ttl)
}

func (f *faultyStore) SCard(ctx context.Context, key string) (int64, error) {
	if err := f.fail(&f.failSCard); err != nil {
		return 0, err
	}
	return f.Memory.SCard(ctx, key)
}

func (f *faultyStore) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	if err := f.fail(&f.failSAdd); err != nil {
		return 0, err
	}
	return f.Memory.SAdd(ctx, key, members...)
}

func (f *faultyStore) Del(ctx context.Context, keys ...string) (int64, error) {
	if err := f.fail(&f.failDel); err != nil {
		return 0, err
	}
	return f.Memory.Del(ctx, keys...)
}

func (f *faultyStore) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	if err := f.fail(&f.failSRem); err != nil {
		return 0, err
	}
	return f.Memory.SRem(ctx, key, members...)
}

func (f *faultyStore) CompareAndSwap(ctx context.Context, key, oldValue, newValue string, ttl time.Duration) error {
	if err := f.fail(&f.failCAS); err != nil {
		return err
	}
	return f.Memory.CompareAndSwap(ctx, key, oldValue, newValue, ttl)
}

// racingStore 在第一次 CAS 前插入一次竞争写入，模拟并发请求抢先
type racingStore struct {
	*store.Memory
	once   sync.Once
	before func()
}

func (r *racingStore) CompareAndSwap(ctx context.Context, key, oldValue, newValue string, ttl time.Duration) error {
	r.once.Do(r.before)
	return r.Memory.CompareAndSwap(ctx, key, oldValue, newValue, ttl)
}

// cancelOnSwapStore CAS 成功后立即取消请求 ctx，模拟客户端在写成员前断开
// SAdd 遵循 ctx 取消，与真实存储的行为一致
type cancelOnSwapStore struct {
	*store.Memory
	cancel context.CancelFunc
}

func (s *cancelOnSwapStore) CompareAndSwap(ctx context.Context, key, oldValue, newValue string, ttl time.Duration) error {
	err := s.Memory.CompareAndSwap(ctx, key, oldValue, newValue, ttl)
	if err == nil {
		s.cancel()
	}
	return err
}

func (s *cancelOnSwapStore) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.Memory.SAdd(ctx, key, members...)
}

// fixedCodes 依次返回给定的邀请码，用完后重复最后一个
func fixedCodes(codes ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		c := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return c, nil
	}
}

func int64Ptr(v int64) *int64 { return &v }
