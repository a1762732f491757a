package handler

import "craz-web-meta/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Invite   *InviteHandler
	Team     *TeamHandler
	Metadata *MetadataHandler
	Health   *HealthHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, pinger Pinger) *Handler {
	return &Handler{
		Invite:   NewInviteHandler(svc.Invite),
		Team:     NewTeamHandler(svc.Team, svc.Export),
		Metadata: NewMetadataHandler(svc.Metadata),
		Health:   NewHealthHandler(pinger),
	}
}
