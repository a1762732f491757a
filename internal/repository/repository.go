package repository

import (
	"context"

	"craz-web-meta/internal/store"
)

// Repository 所有 Repository 的聚合入口
// 底层共享同一个 store.Store，具体后端由启动参数决定
type Repository struct {
	Invite   InviteCodeRepository
	Team     TeamRepository
	Metadata MetadataRepository

	store store.Store
}

// NewRepository 创建 Repository 聚合
func NewRepository(st store.Store) *Repository {
	return &Repository{
		Invite:   NewInviteCodeRepo(st),
		Team:     NewTeamRepo(st),
		Metadata: NewMetadataRepo(st),
		store:    st,
	}
}

// Ping 检查底层存储是否可用
func (r *Repository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
