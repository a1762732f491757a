package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"craz-web-meta/internal/store"
	pkgerrors "craz-web-meta/pkg/errors"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewFromClient(rdb, zap.NewNop()), mr
}

func TestClient_SetGetAndExpiry(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	if err := c.Set(ctx, "invite:ABCD1234", `{"team_id":"t1"}`, 10*time.Second); err != nil {
		t.Fatalf("Set 应成功: %v", err)
	}
	v, err := c.Get(ctx, "invite:ABCD1234")
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if v != `{"team_id":"t1"}` {
		t.Errorf("期望读回原值，实际=%s", v)
	}

	ttl, err := c.TTL(ctx, "invite:ABCD1234")
	if err != nil {
		t.Fatalf("TTL 应成功: %v", err)
	}
	if ttl <= 0 || ttl > 10*time.Second {
		t.Errorf("期望 TTL 在 (0,10s]，实际=%v", ttl)
	}

	mr.FastForward(11 * time.Second)
	if _, err := c.Get(ctx, "invite:ABCD1234"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("过期后期望 ErrNotFound，实际=%v", err)
	}
	ttl, _ = c.TTL(ctx, "invite:ABCD1234")
	if ttl != store.TTLNotFound {
		t.Errorf("期望 TTLNotFound，实际=%v", ttl)
	}
}

func TestClient_InvalidTTL(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", 0); !errors.Is(err, store.ErrInvalidTTL) {
		t.Errorf("期望 ErrInvalidTTL，实际=%v", err)
	}
	if _, err := c.SetNX(ctx, "k", "v", -time.Second); !errors.Is(err, store.ErrInvalidTTL) {
		t.Errorf("期望 ErrInvalidTTL，实际=%v", err)
	}
}

func TestClient_SetNX(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "invite:AAAA0000", "first", time.Minute)
	if err != nil || !ok {
		t.Fatalf("首次 SetNX 应成功: ok=%v err=%v", ok, err)
	}
	ok, err = c.SetNX(ctx, "invite:AAAA0000", "second", time.Minute)
	if err != nil {
		t.Fatalf("SetNX 不应报错: %v", err)
	}
	if ok {
		t.Error("键已存在时 SetNX 应返回 false")
	}
	v, _ := c.Get(ctx, "invite:AAAA0000")
	if v != "first" {
		t.Errorf("期望保留首次写入的值，实际=%s", v)
	}
}

func TestClient_CompareAndSwap(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	if err := c.Set(ctx, "invite:CAS00001", "v1", time.Minute); err != nil {
		t.Fatalf("Set 应成功: %v", err)
	}

	if err := c.CompareAndSwap(ctx, "invite:CAS00001", "v1", "v2", 30*time.Second); err != nil {
		t.Fatalf("值匹配时 CAS 应成功: %v", err)
	}
	if err := c.CompareAndSwap(ctx, "invite:CAS00001", "v1", "v3", 30*time.Second); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("值不匹配时期望 ErrOptimisticLock，实际=%v", err)
	}
	v, _ := c.Get(ctx, "invite:CAS00001")
	if v != "v2" {
		t.Errorf("期望值为 v2，实际=%s", v)
	}
	if ttl := mr.TTL("invite:CAS00001"); ttl <= 0 || ttl > 30*time.Second {
		t.Errorf("CAS 应重设 TTL，实际=%v", ttl)
	}

	// 键不存在时同样视为冲突
	if err := c.CompareAndSwap(ctx, "invite:MISSING0", "v1", "v2", time.Second); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("键不存在时期望 ErrOptimisticLock，实际=%v", err)
	}
}

func TestClient_SetOperations(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	key := "team:t1:invites"

	n, err := c.SAdd(ctx, key, "AAAA0000", "BBBB1111", "AAAA0000")
	if err != nil {
		t.Fatalf("SAdd 应成功: %v", err)
	}
	if n != 2 {
		t.Errorf("期望新增 2 个成员，实际=%d", n)
	}

	card, _ := c.SCard(ctx, key)
	if card != 2 {
		t.Errorf("期望 SCard=2，实际=%d", card)
	}
	ok, _ := c.SIsMember(ctx, key, "BBBB1111")
	if !ok {
		t.Error("期望 BBBB1111 在集合中")
	}

	if n, _ := c.SRem(ctx, key, "AAAA0000", "ZZZZ9999"); n != 1 {
		t.Errorf("期望移除 1 个成员，实际=%d", n)
	}
	members, _ := c.SMembers(ctx, key)
	if len(members) != 1 || members[0] != "BBBB1111" {
		t.Errorf("期望剩余 [BBBB1111]，实际=%v", members)
	}

	ttl, _ := c.TTL(ctx, key)
	if ttl != store.TTLNoExpiry {
		t.Errorf("集合不应设置过期，实际 TTL=%v", ttl)
	}

	removed, _ := c.Del(ctx, key, "absent")
	if removed != 1 {
		t.Errorf("期望删除 1 个键，实际=%d", removed)
	}
	members, err = c.SMembers(ctx, key)
	if err != nil || len(members) != 0 {
		t.Errorf("删除后期望空集合，实际=%v err=%v", members, err)
	}
}

func TestClient_Allow(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := c.Allow(ctx, "ratelimit:1.2.3.4", 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("第 %d 次请求应放行: ok=%v err=%v", i+1, ok, err)
		}
	}
	ok, _ := c.Allow(ctx, "ratelimit:1.2.3.4", 3, time.Minute)
	if ok {
		t.Error("超过上限后应拒绝")
	}

	mr.FastForward(time.Minute + time.Second)
	ok, _ = c.Allow(ctx, "ratelimit:1.2.3.4", 3, time.Minute)
	if !ok {
		t.Error("窗口结束后应重新放行")
	}
}

func TestClient_UnavailableAfterClose(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_ = c.Close()
	if _, err := c.Get(ctx, "k"); !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("连接关闭后期望 ErrUnavailable，实际=%v", err)
	}
}

func TestClient_UnavailableWhenServerDown(t *testing.T) {
	c, mr := newTestClient(t)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Ping(ctx); !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("服务端不可达时期望 ErrUnavailable，实际=%v", err)
	}
}
