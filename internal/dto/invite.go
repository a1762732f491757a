package dto

// ── 邀请码模块请求 ──

// CreateInviteRequest 创建邀请码请求
type CreateInviteRequest struct {
	TeamID   string `json:"team_id"   binding:"required,max=64"`
	ExpireAt *int64 `json:"expire_at" binding:"required"` // 毫秒时间戳，非未来时间由业务层判定
}

// VerifyInviteRequest 验证邀请码请求
type VerifyInviteRequest struct {
	InviteCode string `json:"invite_code" binding:"required"` // 格式不符按无效邀请码处理
}

// UseInviteRequest 使用邀请码请求
type UseInviteRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
	UserID     string `json:"user_id"     binding:"required,max=128"`
}

// ── 邀请码模块响应 ──

// CreateInviteResponse 创建结果
type CreateInviteResponse struct {
	InviteCode string `json:"invite_code"`
	TeamID     string `json:"team_id"`
	ExpireAt   int64  `json:"expire_at"`
	TTL        int64  `json:"ttl"` // 秒
}

// VerifyInviteResponse 验证结果
type VerifyInviteResponse struct {
	TeamID    string `json:"team_id"`
	CreatedAt int64  `json:"created_at"`
	ExpireAt  int64  `json:"expire_at"`
	Valid     bool   `json:"valid"`
}

// UseInviteResponse 使用结果
type UseInviteResponse struct {
	TeamID   string `json:"team_id"`
	UserID   string `json:"user_id"`
	JoinedAt int64  `json:"joined_at"` // 秒
}

// InviteDetail 团队邀请码列表项
type InviteDetail struct {
	Code      string  `json:"code"`
	TeamID    string  `json:"team_id"`
	CreatedAt int64   `json:"created_at"`
	ExpireAt  int64   `json:"expire_at"`
	Used      bool    `json:"used"`
	UsedBy    *string `json:"used_by"`
	UsedAt    *int64  `json:"used_at"`
}

// ExpiryDetails Expired / ExpireTimePast 错误附带的时间信息（毫秒）
type ExpiryDetails struct {
	Now      int64 `json:"now"`
	ExpireAt int64 `json:"expire_at"`
	TimeDiff int64 `json:"time_diff"`
}
