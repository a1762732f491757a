package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"craz-web-meta/internal/dto"
	"craz-web-meta/internal/service"
	"craz-web-meta/pkg/response"
)

// 元数据模块错误码
const (
	CodeMetadataInvalidURL       = "METADATA_INVALID_URL"
	CodeMetadataParseFailed      = "METADATA_PARSE_FAILED"
	CodeMetadataTimeout          = "METADATA_REQUEST_TIMEOUT"
	CodeMetadataCacheUnavailable = "METADATA_CACHE_UNAVAILABLE"
	CodeMetadataMissingFields    = "METADATA_MISSING_REQUIRED_FIELDS"
	CodeMetadataInvalidData      = "METADATA_INVALID_DATA"
)

// MetadataHandler 元数据模块 HTTP 处理器
type MetadataHandler struct {
	metadataSvc service.MetadataService
}

// NewMetadataHandler 创建 MetadataHandler
func NewMetadataHandler(metadataSvc service.MetadataService) *MetadataHandler {
	return &MetadataHandler{metadataSvc: metadataSvc}
}

// Parse 解析页面元数据（优先读缓存）
// POST /api/parse
func (h *MetadataHandler) Parse(c *gin.Context) {
	var req dto.ParseMetadataRequest
	if !MustBindJSON(c, &req) {
		return
	}

	result, err := h.metadataSvc.Parse(c.Request.Context(), req.URL)
	if err != nil {
		handleMetadataError(c, err)
		return
	}
	response.OK(c, result)
}

// Update 覆盖元数据缓存
// POST /api/update
func (h *MetadataHandler) Update(c *gin.Context) {
	var req dto.UpdateMetadataRequest
	if !MustBindJSON(c, &req) {
		return
	}

	result, err := h.metadataSvc.Update(c.Request.Context(), &req)
	if err != nil {
		handleMetadataError(c, err)
		return
	}
	response.OK(c, result)
}

func handleMetadataError(c *gin.Context, err error) {
	details := service.ErrorDetails(err)
	switch {
	case errors.Is(err, service.ErrMetadataInvalidURL):
		response.Fail(c, CodeMetadataInvalidURL, service.ErrMetadataInvalidURL.Error())
	case errors.Is(err, service.ErrMetadataTimeout):
		response.Fail(c, CodeMetadataTimeout, service.ErrMetadataTimeout.Error())
	case errors.Is(err, service.ErrMetadataMissingFields):
		response.FailWithDetails(c, CodeMetadataMissingFields, service.ErrMetadataMissingFields.Error(), details)
	case errors.Is(err, service.ErrMetadataInvalidData):
		response.FailWithDetails(c, CodeMetadataInvalidData, service.ErrMetadataInvalidData.Error(), details)
	case errors.Is(err, service.ErrCacheUnavailable):
		response.Fail(c, CodeMetadataCacheUnavailable, service.ErrCacheUnavailable.Error())
	default:
		_ = c.Error(err)
		response.Fail(c, CodeMetadataParseFailed, service.ErrMetadataParseFailed.Error())
	}
}
