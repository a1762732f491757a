package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"craz-web-meta/internal/service"
	"craz-web-meta/pkg/response"
)

// 团队模块错误码
const (
	CodeTeamInvitesFetchFailed  = "TEAM_INVITES_FETCH_FAILED"
	CodeTeamMembersFetchFailed  = "TEAM_MEMBERS_FETCH_FAILED"
	CodeTeamInvitesExportFailed = "TEAM_INVITES_EXPORT_FAILED"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TeamHandler 团队模块 HTTP 处理器
type TeamHandler struct {
	teamSvc   service.TeamService
	exportSvc service.ExportService
}

// NewTeamHandler 创建 TeamHandler
func NewTeamHandler(teamSvc service.TeamService, exportSvc service.ExportService) *TeamHandler {
	return &TeamHandler{teamSvc: teamSvc, exportSvc: exportSvc}
}

// ListInvites 列出团队邀请码
// GET /api/team/:team_id/invites
func (h *TeamHandler) ListInvites(c *gin.Context) {
	teamID, ok := MustGetTeamID(c)
	if !ok {
		return
	}

	invites, err := h.teamSvc.ListInvites(c.Request.Context(), teamID)
	if err != nil {
		handleTeamError(c, err, CodeTeamInvitesFetchFailed, "获取团队邀请码失败")
		return
	}
	response.OK(c, invites)
}

// ListMembers 列出团队成员
// GET /api/team/:team_id/members
func (h *TeamHandler) ListMembers(c *gin.Context) {
	teamID, ok := MustGetTeamID(c)
	if !ok {
		return
	}

	members, err := h.teamSvc.ListMembers(c.Request.Context(), teamID)
	if err != nil {
		handleTeamError(c, err, CodeTeamMembersFetchFailed, "获取团队成员失败")
		return
	}
	response.OK(c, members)
}

// ExportInvites 导出团队邀请码为 Excel
// GET /api/team/:team_id/invites/export
func (h *TeamHandler) ExportInvites(c *gin.Context) {
	teamID, ok := MustGetTeamID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportTeamInvites(c.Request.Context(), teamID)
	if err != nil {
		handleTeamError(c, err, CodeTeamInvitesExportFailed, "导出团队邀请码失败")
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func handleTeamError(c *gin.Context, err error, failCode, failMsg string) {
	if errors.Is(err, service.ErrCacheUnavailable) {
		response.Fail(c, CodeCacheUnavailable, service.ErrCacheUnavailable.Error())
		return
	}
	_ = c.Error(err)
	response.Fail(c, failCode, failMsg)
}
