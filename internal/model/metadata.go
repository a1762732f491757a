package model

// PageMetadata 页面元数据缓存 — 以 JSON 存放在 metadata:<url> 下
type PageMetadata struct {
	URL         string `json:"url,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Favicon     string `json:"favicon,omitempty"`
	Type        string `json:"type,omitempty"`
	SiteName    string `json:"siteName,omitempty"`
	Locale      string `json:"locale,omitempty"`
	CachedAt    string `json:"cachedAt,omitempty"` // RFC3339，毫秒精度
}

// Field 按字段名取值，用于必需字段校验
func (m *PageMetadata) Field(name string) string {
	switch name {
	case "url":
		return m.URL
	case "title":
		return m.Title
	case "description":
		return m.Description
	case "image":
		return m.Image
	case "favicon":
		return m.Favicon
	case "type":
		return m.Type
	case "siteName", "site_name":
		return m.SiteName
	case "locale":
		return m.Locale
	}
	return ""
}

// MissingFields 返回 required 中为空的字段
func (m *PageMetadata) MissingFields(required []string) []string {
	var missing []string
	for _, f := range required {
		if m.Field(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}
