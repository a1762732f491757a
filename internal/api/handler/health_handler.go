package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"craz-web-meta/internal/dto"
)

// Pinger 存储连通性检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查
type HealthHandler struct {
	pinger Pinger
	now    func() time.Time
}

// NewHealthHandler 创建 HealthHandler
func NewHealthHandler(pinger Pinger) *HealthHandler {
	return &HealthHandler{pinger: pinger, now: time.Now}
}

// Health 存储不可达时返回 503，供负载均衡摘除实例
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{Status: "ok", Store: "ok", Time: h.now().UTC().Format(time.RFC3339)}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.pinger.Ping(ctx); err != nil {
		_ = c.Error(err)
		resp.Status = "degraded"
		resp.Store = "unavailable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
