package store

import (
	"context"
	"time"
)

// timeoutStore 为每次存储调用附加命令超时
type timeoutStore struct {
	next    Store
	timeout time.Duration
}

// WithTimeout 包装 Store，使每个命令在 timeout 内返回
// timeout <= 0 时原样返回 st
func WithTimeout(st Store, timeout time.Duration) Store {
	if timeout <= 0 {
		return st
	}
	return &timeoutStore{next: st, timeout: timeout}
}

func (s *timeoutStore) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.timeout)
}

func (s *timeoutStore) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.Get(ctx, key)
}

func (s *timeoutStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.Set(ctx, key, value, ttl)
}

func (s *timeoutStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.SetNX(ctx, key, value, ttl)
}

func (s *timeoutStore) CompareAndSwap(ctx context.Context, key, oldValue, newValue string, ttl time.Duration) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.CompareAndSwap(ctx, key, oldValue, newValue, ttl)
}

func (s *timeoutStore) Del(ctx context.Context, keys ...string) (int64, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.Del(ctx, keys...)
}

func (s *timeoutStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.TTL(ctx, key)
}

func (s *timeoutStore) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.SAdd(ctx, key, members...)
}

func (s *timeoutStore) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.SRem(ctx, key, members...)
}

func (s *timeoutStore) SMembers(ctx context.Context, key string) ([]string, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.SMembers(ctx, key)
}

func (s *timeoutStore) SIsMember(ctx context.Context, key, member string) (bool, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.SIsMember(ctx, key, member)
}

func (s *timeoutStore) SCard(ctx context.Context, key string) (int64, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.SCard(ctx, key)
}

func (s *timeoutStore) Ping(ctx context.Context) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.next.Ping(ctx)
}

func (s *timeoutStore) Close() error {
	return s.next.Close()
}
