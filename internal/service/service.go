package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"craz-web-meta/config"
	"craz-web-meta/internal/repository"
	"craz-web-meta/internal/store"
	applogger "craz-web-meta/pkg/logger"
	"craz-web-meta/pkg/metrics"
)

// ErrCacheUnavailable 存储超时或连接失败，所有模块共用
var ErrCacheUnavailable = errors.New("缓存服务不可用")

// Service 所有 Service 的聚合入口
type Service struct {
	Invite   InviteService
	Team     TeamService
	Metadata MetadataService
	Export   ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	extractor Extractor,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	team := NewTeamService(repo, logger)
	return &Service{
		Invite:   NewInviteService(repo, cfg.Invite.MaxPerTeam, m, logger),
		Team:     team,
		Metadata: NewMetadataService(repo, extractor, &cfg.Metadata, m, logger),
		Export:   NewExportService(team, logger),
	}
}

// DetailError 携带附加信息的业务错误，details 原样返回给调用方
type DetailError struct {
	Err     error
	Details interface{}
}

func (e *DetailError) Error() string { return e.Err.Error() }

func (e *DetailError) Unwrap() error { return e.Err }

// ErrorDetails 取出错误链上的 details，没有时返回 nil
func ErrorDetails(err error) interface{} {
	var de *DetailError
	if errors.As(err, &de) {
		return de.Details
	}
	return nil
}

// ctxLogger 优先使用请求上下文中带 request_id 的日志器
func ctxLogger(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	return applogger.FromContext(ctx, fallback)
}

func (s *inviteService) log(ctx context.Context) *zap.Logger   { return ctxLogger(ctx, s.logger) }
func (s *teamService) log(ctx context.Context) *zap.Logger     { return ctxLogger(ctx, s.logger) }
func (s *metadataService) log(ctx context.Context) *zap.Logger { return ctxLogger(ctx, s.logger) }
func (s *exportService) log(ctx context.Context) *zap.Logger   { return ctxLogger(ctx, s.logger) }

// storeErr 将存储不可用归类为 ErrCacheUnavailable，其余原样返回
func storeErr(err error) error {
	if errors.Is(err, store.ErrUnavailable) {
		return fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
	}
	return err
}
