package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"craz-web-meta/config"
	"craz-web-meta/internal/dto"
	"craz-web-meta/internal/model"
	"craz-web-meta/internal/repository"
	"craz-web-meta/internal/store"
	"craz-web-meta/pkg/metadata"
	"craz-web-meta/pkg/metrics"
)

// ── 元数据模块业务错误 ──

var (
	ErrMetadataInvalidURL    = errors.New("无效的URL")
	ErrMetadataTimeout       = errors.New("请求超时")
	ErrMetadataMissingFields = errors.New("缺少必需的元数据字段")
	ErrMetadataInvalidData   = errors.New("元数据无效")
	ErrMetadataParseFailed   = errors.New("解析元数据失败")
)

// defaultDescription 覆盖缓存时 description 为空的占位
const defaultDescription = "No description"

// Extractor 页面元数据提取器（由 pkg/metadata 实现）
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (*metadata.Metadata, error)
}

// MetadataService 元数据业务接口
type MetadataService interface {
	// Parse 先查缓存，未命中时抓取页面并写入缓存
	Parse(ctx context.Context, pageURL string) (*dto.MetadataResponse, error)
	// Update 覆盖 url 对应的缓存
	Update(ctx context.Context, req *dto.UpdateMetadataRequest) (*dto.UpdateMetadataResponse, error)
}

type metadataService struct {
	repo      *repository.Repository
	extractor Extractor
	cacheTTL  time.Duration
	required  []string
	group     singleflight.Group
	now       func() time.Time
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewMetadataService 创建 MetadataService 实例
func NewMetadataService(
	repo *repository.Repository,
	extractor Extractor,
	cfg *config.MetadataConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) MetadataService {
	return &metadataService{
		repo:      repo,
		extractor: extractor,
		cacheTTL:  cfg.CacheTTL,
		required:  cfg.RequiredFields,
		now:       time.Now,
		metrics:   m,
		logger:    logger,
	}
}

// ────────────────────── Parse ──────────────────────

func (s *metadataService) Parse(ctx context.Context, pageURL string) (*dto.MetadataResponse, error) {
	if !metadata.ValidateURL(pageURL) {
		return nil, ErrMetadataInvalidURL
	}

	cached, err := s.repo.Metadata.Get(ctx, pageURL)
	switch {
	case err == nil:
		if missing := cached.MissingFields(s.required); len(missing) > 0 {
			s.metrics.ObserveMetadata("cache", "missing_fields")
			return nil, missingFieldsError(missing)
		}
		s.metrics.ObserveMetadata("cache", "ok")
		return toMetadataResponse(pageURL, cached), nil
	case errors.Is(err, store.ErrNotFound):
	case errors.Is(err, repository.ErrCorruptRecord):
		s.log(ctx).Warn("缓存内容无法解析，重新抓取", zap.String("url", pageURL), zap.Error(err))
	default:
		s.log(ctx).Error("读取元数据缓存失败", zap.String("url", pageURL), zap.Error(err))
		return nil, storeErr(err)
	}

	// 同一 URL 的并发未命中只抓取一次
	v, err, _ := s.group.Do(pageURL, func() (interface{}, error) {
		return s.fetch(context.WithoutCancel(ctx), pageURL)
	})
	if err != nil {
		s.metrics.ObserveMetadata("fetch", fetchLabel(err))
		return nil, err
	}
	s.metrics.ObserveMetadata("fetch", "ok")
	return toMetadataResponse(pageURL, v.(*model.PageMetadata)), nil
}

func (s *metadataService) fetch(ctx context.Context, pageURL string) (*model.PageMetadata, error) {
	raw, err := s.extractor.Extract(ctx, pageURL)
	if err != nil {
		switch {
		case errors.Is(err, metadata.ErrTimeout):
			s.log(ctx).Warn("抓取页面超时", zap.String("url", pageURL))
			return nil, ErrMetadataTimeout
		case errors.Is(err, metadata.ErrInvalidURL):
			return nil, ErrMetadataInvalidURL
		}
		s.log(ctx).Error("抓取页面失败", zap.String("url", pageURL), zap.Error(err))
		return nil, ErrMetadataParseFailed
	}

	meta := &model.PageMetadata{
		URL:         pageURL,
		Title:       raw.Title,
		Description: raw.Description,
		Image:       raw.Image,
		Favicon:     raw.Favicon,
		Type:        raw.Type,
		SiteName:    raw.SiteName,
		Locale:      raw.Locale,
		CachedAt:    s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if missing := meta.MissingFields(s.required); len(missing) > 0 {
		return nil, missingFieldsError(missing)
	}

	// 缓存写入失败不影响本次返回
	if err := s.repo.Metadata.Save(ctx, pageURL, meta, s.cacheTTL); err != nil {
		s.log(ctx).Warn("写入元数据缓存失败", zap.String("url", pageURL), zap.Error(err))
	}
	return meta, nil
}

// ────────────────────── Update ──────────────────────

func (s *metadataService) Update(ctx context.Context, req *dto.UpdateMetadataRequest) (*dto.UpdateMetadataResponse, error) {
	if !metadata.ValidateURL(req.URL) {
		return nil, ErrMetadataInvalidURL
	}

	p := req.Metadata
	meta := &model.PageMetadata{
		URL:         req.URL,
		Title:       p.Title,
		Description: p.Description,
		Image:       p.Image,
		Favicon:     p.Favicon,
		Type:        p.Type,
		SiteName:    p.SiteName,
		Locale:      p.Locale,
		CachedAt:    s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if missing := meta.MissingFields(s.required); len(missing) > 0 {
		return nil, &DetailError{Err: ErrMetadataInvalidData, Details: map[string]interface{}{"missing": missing}}
	}
	if meta.Description == "" {
		meta.Description = defaultDescription
	}

	if err := s.repo.Metadata.Save(ctx, req.URL, meta, s.cacheTTL); err != nil {
		s.log(ctx).Error("覆盖元数据缓存失败", zap.String("url", req.URL), zap.Error(err))
		return nil, storeErr(err)
	}
	s.log(ctx).Info("元数据缓存已覆盖", zap.String("url", req.URL))
	return &dto.UpdateMetadataResponse{Updated: true}, nil
}

// ── 辅助函数 ──

func missingFieldsError(missing []string) error {
	return &DetailError{Err: ErrMetadataMissingFields, Details: map[string]interface{}{"missing": missing}}
}

func toMetadataResponse(pageURL string, m *model.PageMetadata) *dto.MetadataResponse {
	u := m.URL
	if u == "" {
		u = pageURL
	}
	return &dto.MetadataResponse{
		URL:         u,
		Title:       m.Title,
		Description: m.Description,
		Image:       m.Image,
		Favicon:     m.Favicon,
		Type:        m.Type,
		SiteName:    m.SiteName,
		Locale:      m.Locale,
		CachedAt:    m.CachedAt,
	}
}

func fetchLabel(err error) string {
	switch {
	case errors.Is(err, ErrMetadataTimeout):
		return "timeout"
	case errors.Is(err, ErrMetadataMissingFields):
		return "missing_fields"
	default:
		return "error"
	}
}
