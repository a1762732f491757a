package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrTimeout 抓取超过 FetchTimeout
	ErrTimeout = errors.New("metadata: request timeout")
	// ErrInvalidURL 非 http/https 地址
	ErrInvalidURL = errors.New("metadata: invalid url")
	// ErrBadStatus 目标站点返回非 2xx
	ErrBadStatus = errors.New("metadata: unexpected status")
)

// maxBodySize 只解析前 4MB，meta 标签都在 head 里
const maxBodySize = 4 << 20

// Metadata 从页面提取的元信息，缺失字段为空字符串
type Metadata struct {
	Title       string
	Description string
	Image       string
	Favicon     string
	Type        string
	SiteName    string
	Locale      string
}

// Extractor 抓取页面并提取 Open Graph / HTML 元数据
type Extractor struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

// NewExtractor 创建提取器，timeout 同时约束连接与读取整个响应
func NewExtractor(timeout time.Duration, userAgent string) *Extractor {
	return &Extractor{
		client:    &http.Client{},
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// ValidateURL 仅接受带主机名的 http / https 地址
func ValidateURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// Extract 抓取 pageURL 并解析元数据
func (e *Extractor) Extract(ctx context.Context, pageURL string) (*Metadata, error) {
	if !ValidateURL(pageURL) {
		return nil, ErrInvalidURL
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("请求页面失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("解析 HTML 失败: %w", err)
	}

	// 跟随重定向后以最终地址为基准解析相对路径
	base := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL.String()
	}
	return Parse(doc, base), nil
}

// Parse 从已加载的文档中提取元数据
func Parse(doc *goquery.Document, baseURL string) *Metadata {
	meta := func(selector string) string {
		v, _ := doc.Find(selector).First().Attr("content")
		return strings.TrimSpace(v)
	}
	link := func(selector string) string {
		v, _ := doc.Find(selector).First().Attr("href")
		return strings.TrimSpace(v)
	}

	m := &Metadata{
		Title:       firstNonEmpty(meta(`meta[property="og:title"]`), strings.TrimSpace(doc.Find("title").First().Text())),
		Description: firstNonEmpty(meta(`meta[property="og:description"]`), meta(`meta[name="description"]`)),
		Image:       ResolveURL(baseURL, meta(`meta[property="og:image"]`)),
		Favicon:     ResolveURL(baseURL, firstNonEmpty(link(`link[rel="icon"]`), link(`link[rel="shortcut icon"]`))),
		Type:        meta(`meta[property="og:type"]`),
		SiteName:    meta(`meta[property="og:site_name"]`),
		Locale:      meta(`meta[property="og:locale"]`),
	}
	return m
}

// ResolveURL 把 ref 转为绝对地址
// 支持协议相对（//host/x）、根相对（/x）与普通相对路径；无法解析时返回空串
func ResolveURL(baseURL, ref string) string {
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(ref, "//"):
		return base.Scheme + ":" + ref
	case strings.HasPrefix(ref, "/"):
		return base.Scheme + "://" + base.Host + ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ""
	}
	return u.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
