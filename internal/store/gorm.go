package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"craz-web-meta/internal/model"
	pkgerrors "craz-web-meta/pkg/errors"
)

// GormStore 基于 PostgreSQL 的存储实现
// 键值与集合分表存放；过期通过 expire_at 过滤，并由 PurgeExpired 定期物理清理
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore 创建 PostgreSQL 存储（表结构由 pkg/database 的迁移创建）
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

func (s *GormStore) mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case IsTransient(err), errors.Is(err, driver.ErrBadConn):
		return Unavailable(err)
	default:
		return err
	}
}

// live 仅匹配未过期的行
func (s *GormStore) live(tx *gorm.DB, now time.Time) *gorm.DB {
	return tx.Where("(expire_at IS NULL OR expire_at > ?)", now)
}

func (s *GormStore) Get(ctx context.Context, key string) (string, error) {
	var entry model.KVEntry
	err := s.live(s.db.WithContext(ctx), s.now()).
		Where("kv_key = ?", key).
		First(&entry).Error
	if err != nil {
		return "", s.mapErr(err)
	}
	return entry.Value, nil
}

func (s *GormStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	expireAt := s.now().Add(ttl)
	entry := model.KVEntry{Key: key, Value: value, ExpireAt: &expireAt}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kv_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expire_at"}),
		}).
		Create(&entry).Error
	return s.mapErr(err)
}

func (s *GormStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}
	now := s.now()
	expireAt := now.Add(ttl)

	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 过期行仍占着主键，先清掉
		if err := tx.Where("kv_key = ? AND expire_at IS NOT NULL AND expire_at <= ?", key, now).
			Delete(&model.KVEntry{}).Error; err != nil {
			return err
		}
		entry := model.KVEntry{Key: key, Value: value, ExpireAt: &expireAt}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
		if result.Error != nil {
			return result.Error
		}
		created = result.RowsAffected == 1
		return nil
	})
	if err != nil {
		return false, s.mapErr(err)
	}
	return created, nil
}

func (s *GormStore) CompareAndSwap(ctx context.Context, key, oldValue, newValue string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	now := s.now()
	result := s.live(s.db.WithContext(ctx).Model(&model.KVEntry{}), now).
		Where("kv_key = ? AND value = ?", key, oldValue).
		Updates(map[string]interface{}{
			"value":     newValue,
			"expire_at": now.Add(ttl),
		})
	if result.Error != nil {
		return s.mapErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (s *GormStore) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	now := s.now()

	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := s.live(tx, now).Where("kv_key IN ?", keys).Delete(&model.KVEntry{})
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected

		var setKeys int64
		if err := tx.Model(&model.KVSetMember{}).
			Where("set_key IN ?", keys).
			Distinct("set_key").
			Count(&setKeys).Error; err != nil {
			return err
		}
		if err := tx.Where("set_key IN ?", keys).Delete(&model.KVSetMember{}).Error; err != nil {
			return err
		}
		removed += setKeys
		return nil
	})
	if err != nil {
		return 0, s.mapErr(err)
	}
	return removed, nil
}

func (s *GormStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	now := s.now()
	var entry model.KVEntry
	err := s.live(s.db.WithContext(ctx), now).Where("kv_key = ?", key).First(&entry).Error
	if err == nil {
		if entry.ExpireAt == nil {
			return TTLNoExpiry, nil
		}
		return entry.ExpireAt.Sub(now), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, s.mapErr(err)
	}

	n, err := s.SCard(ctx, key)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return TTLNoExpiry, nil
	}
	return TTLNotFound, nil
}

func (s *GormStore) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	rows := make([]model.KVSetMember, 0, len(members))
	for _, m := range members {
		rows = append(rows, model.KVSetMember{SetKey: key, Member: m})
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if result.Error != nil {
		return 0, s.mapErr(result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormStore) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).
		Where("set_key = ? AND member IN ?", key, members).
		Delete(&model.KVSetMember{})
	if result.Error != nil {
		return 0, s.mapErr(result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormStore) SMembers(ctx context.Context, key string) ([]string, error) {
	var members []string
	err := s.db.WithContext(ctx).
		Model(&model.KVSetMember{}).
		Where("set_key = ?", key).
		Pluck("member", &members).Error
	if err != nil {
		return nil, s.mapErr(err)
	}
	return members, nil
}

func (s *GormStore) SIsMember(ctx context.Context, key, member string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&model.KVSetMember{}).
		Where("set_key = ? AND member = ?", key, member).
		Count(&n).Error
	if err != nil {
		return false, s.mapErr(err)
	}
	return n > 0, nil
}

func (s *GormStore) SCard(ctx context.Context, key string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&model.KVSetMember{}).
		Where("set_key = ?", key).
		Count(&n).Error
	if err != nil {
		return 0, s.mapErr(err)
	}
	return n, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return s.mapErr(sqlDB.PingContext(ctx))
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// PurgeExpired 物理删除已过期的键值行，返回删除行数
func (s *GormStore) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expire_at IS NOT NULL AND expire_at <= ?", s.now()).
		Delete(&model.KVEntry{})
	if result.Error != nil {
		return 0, s.mapErr(result.Error)
	}
	return result.RowsAffected, nil
}

// RunJanitor 按 interval 周期调用 PurgeExpired，直到 ctx 结束
func (s *GormStore) RunJanitor(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("清理过期键失败", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Debug("已清理过期键", zap.Int64("count", n))
			}
		}
	}
}
