package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"craz-web-meta/internal/dto"
	"craz-web-meta/internal/model"
	"craz-web-meta/internal/repository"
	"craz-web-meta/internal/store"
	pkgerrors "craz-web-meta/pkg/errors"
	"craz-web-meta/pkg/metrics"
)

// ── 邀请码模块业务错误 ──

var (
	ErrInviteInvalid     = errors.New("邀请码无效或已过期")
	ErrInviteExpired     = errors.New("邀请码已过期")
	ErrInviteAlreadyUsed = errors.New("邀请码已被使用")
	ErrInviteTooMany     = errors.New("邀请码数量已达到上限")
	ErrExpireTimePast    = errors.New("邀请码过期时间不能是过去的时间")
	// ErrInviteCodeExhausted 连续生成的邀请码都已被占用
	ErrInviteCodeExhausted = errors.New("邀请码生成失败")
	// ErrInviteConflict 记录在重试期间持续被修改
	ErrInviteConflict = errors.New("邀请码状态冲突")
)

const (
	maxCodeAttempts = 5
	maxSwapAttempts = 3
	// maxStoreTTL 超过 int64 纳秒可表示范围的过期时间按此截断，记录中的 expire_at 不变
	maxStoreTTL = 100 * 365 * 24 * time.Hour
)

// InviteService 邀请码业务接口
type InviteService interface {
	// Create 为团队创建邀请码
	Create(ctx context.Context, req *dto.CreateInviteRequest) (*dto.CreateInviteResponse, error)
	// Verify 只读校验，过期记录会被顺带清理
	Verify(ctx context.Context, code string) (*dto.VerifyInviteResponse, error)
	// Use 使用邀请码加入团队，并发使用同一邀请码只有一个成功
	Use(ctx context.Context, req *dto.UseInviteRequest) (*dto.UseInviteResponse, error)
}

type inviteService struct {
	repo       *repository.Repository
	maxPerTeam int
	teamLocks  *keyLock
	generate   func() (string, error)
	now        func() time.Time
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewInviteService 创建 InviteService 实例
func NewInviteService(repo *repository.Repository, maxPerTeam int, m *metrics.Metrics, logger *zap.Logger) InviteService {
	return &inviteService{
		repo:       repo,
		maxPerTeam: maxPerTeam,
		teamLocks:  newKeyLock(),
		generate:   generateInviteCode,
		now:        time.Now,
		metrics:    m,
		logger:     logger,
	}
}

// inviteState 邀请码在某一时刻的状态
type inviteState int

const (
	stateLive inviteState = iota
	stateExpired
	stateUsed
)

// stateOf 过期优先于已使用：过期记录无论是否用过都要清理
func stateOf(invite *model.InviteCode, now time.Time) inviteState {
	if invite.ExpiredAt(now) {
		return stateExpired
	}
	if invite.Used {
		return stateUsed
	}
	return stateLive
}

// ────────────────────── Create ──────────────────────

func (s *inviteService) Create(ctx context.Context, req *dto.CreateInviteRequest) (resp *dto.CreateInviteResponse, err error) {
	defer func() { s.metrics.ObserveInvite("create", resultLabel(err)) }()

	// 同一团队的创建串行化，保证上限检查与写入之间不被插入（仅单实例有效）
	unlock := s.teamLocks.Lock(req.TeamID)
	defer unlock()

	count, err := s.repo.Team.CountInvites(ctx, req.TeamID)
	if err != nil {
		s.log(ctx).Error("查询团队邀请码数量失败", zap.String("team_id", req.TeamID), zap.Error(err))
		return nil, storeErr(err)
	}
	if count >= int64(s.maxPerTeam) {
		return nil, ErrInviteTooMany
	}

	now := s.now()
	nowMs := now.UnixMilli()
	expireAt := *req.ExpireAt
	if expireAt <= nowMs {
		return nil, &DetailError{
			Err:     ErrExpireTimePast,
			Details: dto.ExpiryDetails{Now: nowMs, ExpireAt: expireAt, TimeDiff: nowMs - expireAt},
		}
	}

	remainingMs := expireAt - nowMs
	ttlSeconds := remainingMs / 1000
	storeTTL := time.Duration(ttlSeconds) * time.Second
	if ttlSeconds == 0 {
		// 不足 1 秒时按剩余毫秒写入
		storeTTL = time.Duration(remainingMs) * time.Millisecond
	}
	if ttlSeconds > int64(maxStoreTTL/time.Second) {
		storeTTL = maxStoreTTL
	}

	invite := &model.InviteCode{
		TeamID:    req.TeamID,
		CreatedAt: now.Unix(),
		ExpireAt:  expireAt,
	}
	if err := s.insert(ctx, invite, storeTTL); err != nil {
		return nil, err
	}

	// 与记录写入不在同一事务：失败时记录会随 TTL 自然消失
	if err := s.repo.Team.AddInvite(ctx, req.TeamID, invite.Code); err != nil {
		s.log(ctx).Error("写入团队邀请码索引失败",
			zap.String("team_id", req.TeamID),
			zap.String("code", invite.Code),
			zap.Error(err),
		)
		return nil, storeErr(err)
	}

	s.log(ctx).Info("邀请码已创建",
		zap.String("team_id", req.TeamID),
		zap.String("code", invite.Code),
		zap.Int64("ttl", ttlSeconds),
	)

	return &dto.CreateInviteResponse{
		InviteCode: invite.Code,
		TeamID:     req.TeamID,
		ExpireAt:   expireAt,
		TTL:        ttlSeconds,
	}, nil
}

// insert 生成邀请码并以 SET NX 写入，冲突时重新生成
func (s *inviteService) insert(ctx context.Context, invite *model.InviteCode, ttl time.Duration) error {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.generate()
		if err != nil {
			s.log(ctx).Error("生成邀请码失败", zap.Error(err))
			return err
		}
		invite.Code = code

		created, err := s.repo.Invite.CreateIfAbsent(ctx, invite, ttl)
		if err != nil {
			s.log(ctx).Error("写入邀请码失败", zap.String("code", code), zap.Error(err))
			return storeErr(err)
		}
		if created {
			return nil
		}
		s.log(ctx).Warn("邀请码冲突，重新生成", zap.String("code", code), zap.Int("attempt", attempt+1))
	}
	return ErrInviteCodeExhausted
}

// ────────────────────── Verify ──────────────────────

func (s *inviteService) Verify(ctx context.Context, code string) (resp *dto.VerifyInviteResponse, err error) {
	defer func() { s.metrics.ObserveInvite("verify", resultLabel(err)) }()

	invite, _, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}

	now := s.now()
	switch stateOf(invite, now) {
	case stateExpired:
		s.cleanupExpired(ctx, invite)
		return nil, expiredError(invite, now)
	case stateUsed:
		return nil, ErrInviteAlreadyUsed
	}

	return &dto.VerifyInviteResponse{
		TeamID:    invite.TeamID,
		CreatedAt: invite.CreatedAt,
		ExpireAt:  invite.ExpireAt,
		Valid:     true,
	}, nil
}

// ────────────────────── Use ──────────────────────

func (s *inviteService) Use(ctx context.Context, req *dto.UseInviteRequest) (resp *dto.UseInviteResponse, err error) {
	defer func() { s.metrics.ObserveInvite("use", resultLabel(err)) }()

	for attempt := 0; attempt < maxSwapAttempts; attempt++ {
		invite, previous, err := s.load(ctx, req.InviteCode)
		if err != nil {
			return nil, err
		}

		now := s.now()
		switch stateOf(invite, now) {
		case stateExpired:
			s.cleanupExpired(ctx, invite)
			return nil, expiredError(invite, now)
		case stateUsed:
			return nil, ErrInviteAlreadyUsed
		}

		invite.MarkUsed(req.UserID, now)
		err = s.repo.Invite.SwapUsed(ctx, invite, previous, redeemTTL(invite, now))
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			// 被并发请求抢先，重新读取后按最新状态判定
			s.log(ctx).Debug("邀请码并发使用冲突", zap.String("code", req.InviteCode), zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			s.log(ctx).Error("标记邀请码已使用失败", zap.String("code", req.InviteCode), zap.Error(err))
			return nil, storeErr(err)
		}

		// 只有赢得 CAS 的请求才写成员集合；此时邀请码已消费，客户端断开也要写完
		if err := s.repo.Team.AddMember(context.WithoutCancel(ctx), invite.TeamID, req.UserID); err != nil {
			s.log(ctx).Error("邀请码已消费但写入团队成员失败",
				zap.String("code", req.InviteCode),
				zap.String("team_id", invite.TeamID),
				zap.String("user_id", req.UserID),
				zap.Error(err),
			)
			return nil, storeErr(err)
		}

		s.log(ctx).Info("邀请码已使用",
			zap.String("code", req.InviteCode),
			zap.String("team_id", invite.TeamID),
			zap.String("user_id", req.UserID),
		)

		return &dto.UseInviteResponse{
			TeamID:   invite.TeamID,
			UserID:   req.UserID,
			JoinedAt: now.Unix(),
		}, nil
	}

	s.log(ctx).Warn("邀请码重试次数耗尽", zap.String("code", req.InviteCode))
	return nil, ErrInviteConflict
}

// ── 辅助函数 ──

// load 读取邀请码；不存在或格式非法的邀请码一律视为无效
func (s *inviteService) load(ctx context.Context, code string) (*model.InviteCode, string, error) {
	if !isValidInviteCode(code) {
		return nil, "", ErrInviteInvalid
	}
	invite, raw, err := s.repo.Invite.Get(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrInviteInvalid
		}
		s.log(ctx).Error("读取邀请码失败", zap.String("code", code), zap.Error(err))
		return nil, "", storeErr(err)
	}
	return invite, raw, nil
}

// cleanupExpired 删除过期记录与索引项；失败只记日志，调用方照常返回 Expired
func (s *inviteService) cleanupExpired(ctx context.Context, invite *model.InviteCode) {
	if err := s.repo.Invite.Delete(ctx, invite.Code); err != nil {
		s.log(ctx).Warn("删除过期邀请码失败", zap.String("code", invite.Code), zap.Error(err))
	}
	if err := s.repo.Team.RemoveInvite(ctx, invite.TeamID, invite.Code); err != nil {
		s.log(ctx).Warn("移除过期邀请码索引失败",
			zap.String("code", invite.Code),
			zap.String("team_id", invite.TeamID),
			zap.Error(err),
		)
	}
	s.log(ctx).Info("已清理过期邀请码", zap.String("code", invite.Code), zap.String("team_id", invite.TeamID))
}

func expiredError(invite *model.InviteCode, now time.Time) error {
	nowMs := now.UnixMilli()
	return &DetailError{
		Err:     ErrInviteExpired,
		Details: dto.ExpiryDetails{Now: nowMs, ExpireAt: invite.ExpireAt, TimeDiff: nowMs - invite.ExpireAt},
	}
}

// redeemTTL 写回已使用记录时的有效期：整秒部分，不足 1 秒时取剩余毫秒（至少 1ms）
func redeemTTL(invite *model.InviteCode, now time.Time) time.Duration {
	remaining := invite.ExpireTime().Sub(now)
	if remaining > maxStoreTTL {
		return maxStoreTTL
	}
	if ttl := remaining.Truncate(time.Second); ttl > 0 {
		return ttl
	}
	if remaining < time.Millisecond {
		return time.Millisecond
	}
	return remaining.Truncate(time.Millisecond)
}

// resultLabel 指标标签
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInviteInvalid):
		return "invalid"
	case errors.Is(err, ErrInviteExpired):
		return "expired"
	case errors.Is(err, ErrInviteAlreadyUsed):
		return "already_used"
	case errors.Is(err, ErrInviteTooMany):
		return "too_many"
	case errors.Is(err, ErrExpireTimePast):
		return "expire_time_past"
	case errors.Is(err, ErrCacheUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
