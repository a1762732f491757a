package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"craz-web-meta/config"
	"craz-web-meta/internal/store"
	pkgerrors "craz-web-meta/pkg/errors"
)

// Client Redis 客户端封装，实现 store.Store
// 同时提供基于固定窗口计数的限流能力
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

var _ store.Store = (*Client)(nil)

// NewClient 创建 Redis 连接并执行 Ping 健康检查
// 重试次数与退避上限来自配置，避免故障时无限重试
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:            cfg.Addr(),
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: cfg.MinRetryBackoff,
		MaxRetryBackoff: cfg.MaxRetryBackoff,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr()))

	return &Client{rdb: rdb, logger: logger}, nil
}

// NewFromClient 使用已有的 go-redis 客户端构造（测试中配合 miniredis 使用）
func NewFromClient(rdb *goredis.Client, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// mapErr 将 go-redis 错误归类到 store 包的错误语义
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, goredis.Nil):
		return store.ErrNotFound
	case errors.Is(err, goredis.ErrClosed), store.IsTransient(err):
		return store.Unavailable(err)
	case strings.Contains(err.Error(), "connection pool timeout"):
		return store.Unavailable(err)
	default:
		return err
	}
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		return "", mapErr(err)
	}
	return v, nil
}

func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return store.ErrInvalidTTL
	}
	return mapErr(c.rdb.Set(ctx, key, value, ttl).Err())
}

func (c *Client) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, store.ErrInvalidTTL
	}
	ok, err := c.rdb.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, mapErr(err)
	}
	return ok, nil
}

// casScript 原子地比较并替换：GET 与 SET 在同一脚本内执行，不会被其他命令插入
var casScript = goredis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
	return 1
end
return 0
`)

func (c *Client) CompareAndSwap(ctx context.Context, key, oldValue, newValue string, ttl time.Duration) error {
	if ttl <= 0 {
		return store.ErrInvalidTTL
	}
	ttlMs := ttl.Milliseconds()
	if ttlMs <= 0 {
		ttlMs = 1
	}
	n, err := casScript.Run(ctx, c.rdb, []string{key}, oldValue, newValue, ttlMs).Int()
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := c.rdb.Del(ctx, keys...).Result()
	return n, mapErr(err)
}

func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := c.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return 0, mapErr(err)
	}
	// go-redis 对 -1 / -2 原样返回，正好是 store.TTLNoExpiry / store.TTLNotFound
	return d, nil
}

func (c *Client) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	n, err := c.rdb.SAdd(ctx, key, toArgs(members)...).Result()
	return n, mapErr(err)
}

func (c *Client) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	n, err := c.rdb.SRem(ctx, key, toArgs(members)...).Result()
	return n, mapErr(err)
}

func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := c.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, mapErr(err)
	}
	return members, nil
}

func (c *Client) SIsMember(ctx context.Context, key, member string) (bool, error) {
	ok, err := c.rdb.SIsMember(ctx, key, member).Result()
	return ok, mapErr(err)
}

func (c *Client) SCard(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.SCard(ctx, key).Result()
	return n, mapErr(err)
}

func (c *Client) Ping(ctx context.Context) error {
	return mapErr(c.rdb.Ping(ctx).Err())
}

// ── 限流 ──

// Allow 固定窗口计数：窗口内第 limit+1 次起返回 false
func (c *Client) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, mapErr(err)
	}
	if n == 1 {
		if err := c.rdb.PExpire(ctx, key, window).Err(); err != nil {
			c.logger.Warn("设置限流窗口过期失败", zap.String("key", key), zap.Error(err))
		}
	}
	return n <= int64(limit), nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}

func toArgs(members []string) []interface{} {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return args
}
