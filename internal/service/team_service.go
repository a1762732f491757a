package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"craz-web-meta/internal/dto"
	"craz-web-meta/internal/repository"
	"craz-web-meta/internal/store"
)

// TeamService 团队索引查询接口
type TeamService interface {
	// ListInvites 列出团队邀请码；索引中已不存在的记录被跳过
	ListInvites(ctx context.Context, teamID string) ([]dto.InviteDetail, error)
	// ListMembers 列出通过邀请码加入的成员
	ListMembers(ctx context.Context, teamID string) (*dto.TeamMembersResponse, error)
}

type teamService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTeamService 创建 TeamService 实例
func NewTeamService(repo *repository.Repository, logger *zap.Logger) TeamService {
	return &teamService{repo: repo, logger: logger}
}

func (s *teamService) ListInvites(ctx context.Context, teamID string) ([]dto.InviteDetail, error) {
	codes, err := s.repo.Team.ListInviteCodes(ctx, teamID)
	if err != nil {
		s.log(ctx).Error("查询团队邀请码索引失败", zap.String("team_id", teamID), zap.Error(err))
		return nil, storeErr(err)
	}

	result := make([]dto.InviteDetail, 0, len(codes))
	for _, code := range codes {
		invite, _, err := s.repo.Invite.Get(ctx, code)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if errors.Is(err, repository.ErrCorruptRecord) {
				s.log(ctx).Warn("跳过格式错误的邀请码记录", zap.String("code", code), zap.Error(err))
				continue
			}
			s.log(ctx).Error("读取邀请码失败", zap.String("code", code), zap.Error(err))
			return nil, storeErr(err)
		}
		result = append(result, dto.InviteDetail{
			Code:      code,
			TeamID:    invite.TeamID,
			CreatedAt: invite.CreatedAt,
			ExpireAt:  invite.ExpireAt,
			Used:      invite.Used,
			UsedBy:    invite.UsedBy,
			UsedAt:    invite.UsedAt,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].Code < result[j].Code
	})
	return result, nil
}

func (s *teamService) ListMembers(ctx context.Context, teamID string) (*dto.TeamMembersResponse, error) {
	members, err := s.repo.Team.ListMembers(ctx, teamID)
	if err != nil {
		s.log(ctx).Error("查询团队成员失败", zap.String("team_id", teamID), zap.Error(err))
		return nil, storeErr(err)
	}
	sort.Strings(members)
	if members == nil {
		members = []string{}
	}
	return &dto.TeamMembersResponse{
		TeamID:  teamID,
		Members: members,
		Total:   len(members),
	}, nil
}
