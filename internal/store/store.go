package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"
)

var (
	// ErrNotFound 键不存在或已过期
	ErrNotFound = errors.New("store: key not found")
	// ErrInvalidTTL 写入时 TTL <= 0 属于调用方错误
	ErrInvalidTTL = errors.New("store: ttl must be positive")
	// ErrUnavailable 存储超时或连接失败
	ErrUnavailable = errors.New("store: unavailable")
)

// TTL 查询的哨兵值（与 Redis TTL 命令的 -1 / -2 语义一致）
const (
	TTLNoExpiry time.Duration = -1
	TTLNotFound time.Duration = -2
)

// Store 键值存储能力集合
// 邀请码子系统只依赖此接口，不关心后端是 Redis、内存还是 PostgreSQL
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	// Set 写入并设置过期时间，ttl <= 0 返回 ErrInvalidTTL
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX 仅在键不存在时写入，返回是否写入成功
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// CompareAndSwap 当前值等于 oldValue 时替换为 newValue，否则返回 pkg/errors.ErrOptimisticLock
	CompareAndSwap(ctx context.Context, key, oldValue, newValue string, ttl time.Duration) error
	// Del 幂等删除，返回实际删除的键数
	Del(ctx context.Context, keys ...string) (int64, error)
	// TTL 返回剩余有效期；无过期返回 TTLNoExpiry，不存在返回 TTLNotFound
	TTL(ctx context.Context, key string) (time.Duration, error)

	// 集合操作，集合本身不设置过期
	SAdd(ctx context.Context, key string, members ...string) (int64, error)
	SRem(ctx context.Context, key string, members ...string) (int64, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SCard(ctx context.Context, key string) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

// Unavailable 将底层错误包装为 ErrUnavailable
func Unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// IsTransient 判断错误是否属于超时 / 网络类故障
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
