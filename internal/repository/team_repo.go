package repository

import (
	"context"

	"craz-web-meta/internal/store"
)

// TeamRepository 团队索引数据访问接口
// 邀请码索引 team:<id>:invites 与成员集合 team:<id>:members 均不设置过期
type TeamRepository interface {
	CountInvites(ctx context.Context, teamID string) (int64, error)
	AddInvite(ctx context.Context, teamID, code string) error
	RemoveInvite(ctx context.Context, teamID, code string) error
	ListInviteCodes(ctx context.Context, teamID string) ([]string, error)

	AddMember(ctx context.Context, teamID, userID string) error
	ListMembers(ctx context.Context, teamID string) ([]string, error)
}

type teamRepo struct {
	store store.Store
}

// NewTeamRepo 创建 TeamRepository 实例
func NewTeamRepo(st store.Store) TeamRepository {
	return &teamRepo{store: st}
}

func (r *teamRepo) CountInvites(ctx context.Context, teamID string) (int64, error) {
	return r.store.SCard(ctx, TeamInvitesKey(teamID))
}

func (r *teamRepo) AddInvite(ctx context.Context, teamID, code string) error {
	_, err := r.store.SAdd(ctx, TeamInvitesKey(teamID), code)
	return err
}

func (r *teamRepo) RemoveInvite(ctx context.Context, teamID, code string) error {
	_, err := r.store.SRem(ctx, TeamInvitesKey(teamID), code)
	return err
}

func (r *teamRepo) ListInviteCodes(ctx context.Context, teamID string) ([]string, error) {
	return r.store.SMembers(ctx, TeamInvitesKey(teamID))
}

func (r *teamRepo) AddMember(ctx context.Context, teamID, userID string) error {
	_, err := r.store.SAdd(ctx, TeamMembersKey(teamID), userID)
	return err
}

func (r *teamRepo) ListMembers(ctx context.Context, teamID string) ([]string, error) {
	return r.store.SMembers(ctx, TeamMembersKey(teamID))
}
