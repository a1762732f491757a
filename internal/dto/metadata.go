package dto

// ParseMetadataRequest 解析元数据请求
type ParseMetadataRequest struct {
	URL string `json:"url" binding:"required"`
}

// MetadataPayload 元数据内容（字段名与缓存 JSON 一致）
type MetadataPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Favicon     string `json:"favicon,omitempty"`
	Type        string `json:"type,omitempty"`
	SiteName    string `json:"siteName,omitempty"`
	Locale      string `json:"locale,omitempty"`
}

// UpdateMetadataRequest 覆盖缓存请求
type UpdateMetadataRequest struct {
	URL      string           `json:"url"      binding:"required"`
	Metadata *MetadataPayload `json:"metadata" binding:"required"`
}

// MetadataResponse 元数据响应
type MetadataResponse struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Favicon     string `json:"favicon,omitempty"`
	Type        string `json:"type,omitempty"`
	SiteName    string `json:"siteName,omitempty"`
	Locale      string `json:"locale,omitempty"`
	CachedAt    string `json:"cachedAt,omitempty"`
}

// UpdateMetadataResponse 覆盖结果
type UpdateMetadataResponse struct {
	Updated bool `json:"updated"`
}
