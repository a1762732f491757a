package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"craz-web-meta/internal/model"
	"craz-web-meta/internal/store"
)

// ErrCorruptRecord 记录存在但无法解析
var ErrCorruptRecord = errors.New("邀请码记录格式错误")

// InviteCodeRepository 邀请码数据访问接口
type InviteCodeRepository interface {
	// Get 读取邀请码记录，同时返回原始 JSON 供 SwapUsed 做比较
	// 不存在时返回 store.ErrNotFound
	Get(ctx context.Context, code string) (*model.InviteCode, string, error)
	// CreateIfAbsent 仅当 invite:<code> 不存在时写入，返回是否写入
	CreateIfAbsent(ctx context.Context, invite *model.InviteCode, ttl time.Duration) (bool, error)
	// SwapUsed 当存储中的值仍等于 previous 时写入 invite（已标记使用）
	// 值已变化返回 pkg/errors.ErrOptimisticLock
	SwapUsed(ctx context.Context, invite *model.InviteCode, previous string, ttl time.Duration) error
	Delete(ctx context.Context, code string) error
}

type inviteCodeRepo struct {
	store store.Store
}

// NewInviteCodeRepo 创建 InviteCodeRepository 实例
func NewInviteCodeRepo(st store.Store) InviteCodeRepository {
	return &inviteCodeRepo{store: st}
}

func (r *inviteCodeRepo) Get(ctx context.Context, code string) (*model.InviteCode, string, error) {
	raw, err := r.store.Get(ctx, InviteKey(code))
	if err != nil {
		return nil, "", err
	}
	var invite model.InviteCode
	if err := json.Unmarshal([]byte(raw), &invite); err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrCorruptRecord, code, err)
	}
	invite.Code = code
	return &invite, raw, nil
}

func (r *inviteCodeRepo) CreateIfAbsent(ctx context.Context, invite *model.InviteCode, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(invite)
	if err != nil {
		return false, err
	}
	return r.store.SetNX(ctx, InviteKey(invite.Code), string(data), ttl)
}

func (r *inviteCodeRepo) SwapUsed(ctx context.Context, invite *model.InviteCode, previous string, ttl time.Duration) error {
	data, err := json.Marshal(invite)
	if err != nil {
		return err
	}
	return r.store.CompareAndSwap(ctx, InviteKey(invite.Code), previous, string(data), ttl)
}

func (r *inviteCodeRepo) Delete(ctx context.Context, code string) error {
	_, err := r.store.Del(ctx, InviteKey(code))
	return err
}
