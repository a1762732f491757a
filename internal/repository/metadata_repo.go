package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"craz-web-meta/internal/model"
	"craz-web-meta/internal/store"
)

// MetadataRepository 元数据缓存访问接口
type MetadataRepository interface {
	// Get 未命中返回 store.ErrNotFound
	Get(ctx context.Context, url string) (*model.PageMetadata, error)
	Save(ctx context.Context, url string, meta *model.PageMetadata, ttl time.Duration) error
}

type metadataRepo struct {
	store store.Store
}

// NewMetadataRepo 创建 MetadataRepository 实例
func NewMetadataRepo(st store.Store) MetadataRepository {
	return &metadataRepo{store: st}
}

func (r *metadataRepo) Get(ctx context.Context, url string) (*model.PageMetadata, error) {
	raw, err := r.store.Get(ctx, MetadataKey(url))
	if err != nil {
		return nil, err
	}
	var meta model.PageMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptRecord, url, err)
	}
	return &meta, nil
}

func (r *metadataRepo) Save(ctx context.Context, url string, meta *model.PageMetadata, ttl time.Duration) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, MetadataKey(url), string(data), ttl)
}
