package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"craz-web-meta/config"
	"craz-web-meta/internal/api/handler"
	"craz-web-meta/internal/api/middleware"
	"craz-web-meta/pkg/jwt"
	"craz-web-meta/pkg/metrics"
)

// Deps 路由依赖的基础设施；Limiter 为 nil 时不限流
type Deps struct {
	JWT     *jwt.Manager
	Limiter middleware.Limiter
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// 服务令牌 scope，与 cmd/token --scope 对应
const (
	scopeInvite   = "invite"
	scopeTeam     = "team"
	scopeMetadata = "metadata"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	r.Use(middleware.Metrics(deps.Metrics))

	// ── 健康检查 / 指标（无需认证）──
	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	// ── API ──
	api := r.Group("/api")
	api.Use(middleware.BearerAuth(cfg.Auth.SecretToken, deps.JWT))
	if cfg.RateLimit.Enabled && deps.Limiter != nil {
		api.Use(middleware.RateLimit(deps.Limiter, cfg.RateLimit.Limit, cfg.RateLimit.Window, deps.Logger))
	}
	{
		// 邀请码模块
		invite := api.Group("/invite", middleware.RequireScope(scopeInvite))
		{
			invite.POST("", h.Invite.Create)
			invite.POST("/verify", h.Invite.Verify)
			invite.POST("/use", h.Invite.Use)
		}

		// 团队模块
		team := api.Group("/team/:team_id", middleware.RequireScope(scopeTeam))
		{
			team.GET("/invites", h.Team.ListInvites)
			team.GET("/invites/export", h.Team.ExportInvites)
			team.GET("/members", h.Team.ListMembers)
		}

		// 元数据模块
		meta := api.Group("", middleware.RequireScope(scopeMetadata))
		{
			meta.POST("/parse", h.Metadata.Parse)
			meta.POST("/update", h.Metadata.Update)
		}
	}

	return r
}
