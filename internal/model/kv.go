package model

import "time"

// KVEntry 字符串键值表 — 对应 kv_entries（PostgreSQL 存储后端）
type KVEntry struct {
	Key      string     `gorm:"column:kv_key;type:text;primaryKey"`
	Value    string     `gorm:"type:text;not null"`
	ExpireAt *time.Time `gorm:"index"`
}

// TableName 指定表名
func (KVEntry) TableName() string { return "kv_entries" }

// KVSetMember 集合成员表 — 对应 kv_set_members
type KVSetMember struct {
	SetKey string `gorm:"type:text;primaryKey"`
	Member string `gorm:"type:text;primaryKey"`
}

// TableName 指定表名
func (KVSetMember) TableName() string { return "kv_set_members" }
