package model

import "time"

// InviteCode 邀请码记录 — 以 JSON 存放在 invite:<code> 下
// Code 是键后缀，不写入 JSON；列表查询时回填
// 时间单位与历史数据保持一致：created_at / used_at 为秒，expire_at 为毫秒
type InviteCode struct {
	Code      string  `json:"-"`
	TeamID    string  `json:"team_id"`
	CreatedAt int64   `json:"created_at"`
	ExpireAt  int64   `json:"expire_at"`
	Used      bool    `json:"used"`
	UsedBy    *string `json:"used_by"`
	UsedAt    *int64  `json:"used_at"`
}

// ExpireTime 过期时刻
func (i *InviteCode) ExpireTime() time.Time {
	return time.UnixMilli(i.ExpireAt)
}

// ExpiredAt 在 now 时刻是否已过期（恰好等于 expire_at 仍视为有效）
func (i *InviteCode) ExpiredAt(now time.Time) bool {
	return now.UnixMilli() > i.ExpireAt
}

// MarkUsed 标记为已使用
func (i *InviteCode) MarkUsed(userID string, now time.Time) {
	usedAt := now.Unix()
	i.Used = true
	i.UsedBy = &userID
	i.UsedAt = &usedAt
}
