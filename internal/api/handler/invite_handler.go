package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"craz-web-meta/internal/dto"
	"craz-web-meta/internal/service"
	"craz-web-meta/pkg/response"
)

// 邀请码模块错误码
const (
	CodeInviteInvalid        = "INVITE_CODE_INVALID"
	CodeInviteExpired        = "INVITE_CODE_EXPIRED"
	CodeInviteAlreadyUsed    = "INVITE_CODE_ALREADY_USED"
	CodeInviteTooMany        = "INVITE_CODE_TOO_MANY"
	CodeInviteExpireTimePast = "INVITE_CODE_EXPIRE_TIME_PAST"
	CodeCacheUnavailable     = "CACHE_UNAVAILABLE"
	CodeInviteCreateFailed   = "INVITE_CODE_CREATE_FAILED"
	CodeInviteVerifyFailed   = "INVITE_CODE_VERIFY_FAILED"
	CodeInviteUseFailed      = "INVITE_CODE_USE_FAILED"
)

// InviteHandler 邀请码模块 HTTP 处理器
type InviteHandler struct {
	inviteSvc service.InviteService
}

// NewInviteHandler 创建 InviteHandler
func NewInviteHandler(inviteSvc service.InviteService) *InviteHandler {
	return &InviteHandler{inviteSvc: inviteSvc}
}

// Create 创建邀请码
// POST /api/invite
func (h *InviteHandler) Create(c *gin.Context) {
	var req dto.CreateInviteRequest
	if !MustBindJSON(c, &req) {
		return
	}

	result, err := h.inviteSvc.Create(c.Request.Context(), &req)
	if err != nil {
		handleInviteError(c, err, CodeInviteCreateFailed, "创建邀请码失败")
		return
	}
	response.OK(c, result)
}

// Verify 验证邀请码
// POST /api/invite/verify
func (h *InviteHandler) Verify(c *gin.Context) {
	var req dto.VerifyInviteRequest
	if !MustBindJSON(c, &req) {
		return
	}

	result, err := h.inviteSvc.Verify(c.Request.Context(), req.InviteCode)
	if err != nil {
		handleInviteError(c, err, CodeInviteVerifyFailed, "验证邀请码失败")
		return
	}
	response.OK(c, result)
}

// Use 使用邀请码加入团队
// POST /api/invite/use
func (h *InviteHandler) Use(c *gin.Context) {
	var req dto.UseInviteRequest
	if !MustBindJSON(c, &req) {
		return
	}

	result, err := h.inviteSvc.Use(c.Request.Context(), &req)
	if err != nil {
		handleInviteError(c, err, CodeInviteUseFailed, "使用邀请码失败")
		return
	}
	response.OK(c, result)
}

// handleInviteError 业务错误一律 200 + error.code；未归类的错误使用各操作自己的失败码
func handleInviteError(c *gin.Context, err error, failCode, failMsg string) {
	details := service.ErrorDetails(err)
	switch {
	case errors.Is(err, service.ErrInviteInvalid):
		response.Fail(c, CodeInviteInvalid, service.ErrInviteInvalid.Error())
	case errors.Is(err, service.ErrInviteExpired):
		response.FailWithDetails(c, CodeInviteExpired, service.ErrInviteExpired.Error(), details)
	case errors.Is(err, service.ErrInviteAlreadyUsed):
		response.Fail(c, CodeInviteAlreadyUsed, service.ErrInviteAlreadyUsed.Error())
	case errors.Is(err, service.ErrInviteTooMany):
		response.Fail(c, CodeInviteTooMany, service.ErrInviteTooMany.Error())
	case errors.Is(err, service.ErrExpireTimePast):
		response.FailWithDetails(c, CodeInviteExpireTimePast, service.ErrExpireTimePast.Error(), details)
	case errors.Is(err, service.ErrCacheUnavailable):
		response.Fail(c, CodeCacheUnavailable, service.ErrCacheUnavailable.Error())
	default:
		_ = c.Error(err)
		response.Fail(c, failCode, failMsg)
	}
}
