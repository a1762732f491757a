package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"craz-web-meta/config"
	"craz-web-meta/pkg/jwt"
	applogger "craz-web-meta/pkg/logger"
	"craz-web-meta/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func okHandler(c *gin.Context) { c.String(http.StatusOK, "ok") }

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ── BearerAuth ──

func TestRequireScope(t *testing.T) {
	mgr := jwt.NewManager(&config.AuthConfig{JWTSecret: "jwt-secret", TokenTTL: time.Hour})
	inviteOnly, _ := mgr.GenerateToken("dashboard", "invite metadata", 0)
	unscoped, _ := mgr.GenerateToken("ops", "", 0)

	r := gin.New()
	r.GET("/team", BearerAuth("s3cret", mgr), RequireScope("team"), okHandler)
	r.GET("/invite", BearerAuth("s3cret", mgr), RequireScope("invite"), okHandler)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"静态令牌不受限", "/team", "s3cret", http.StatusOK},
		{"未声明 scope 不受限", "/team", unscoped, http.StatusOK},
		{"scope 包含", "/invite", inviteOnly, http.StatusOK},
		{"scope 不包含", "/team", inviteOnly, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			w := serve(r, req)
			if w.Code != tt.status {
				t.Errorf("期望 %d，实际=%d", tt.status, w.Code)
			}
			if tt.status == http.StatusForbidden && !strings.Contains(w.Body.String(), `"code":"FORBIDDEN"`) {
				t.Errorf("期望 FORBIDDEN，实际=%s", w.Body.String())
			}
		})
	}
}

func TestBearerAuth(t *testing.T) {
	mgr := jwt.NewManager(&config.AuthConfig{JWTSecret: "jwt-secret", TokenTTL: time.Hour})
	signed, err := mgr.GenerateToken("dashboard", "invite", 0)
	if err != nil {
		t.Fatalf("签发失败: %v", err)
	}
	other := jwt.NewManager(&config.AuthConfig{JWTSecret: "other", TokenTTL: time.Hour})
	forged, _ := other.GenerateToken("evil", "", 0)

	r := gin.New()
	r.GET("/p", BearerAuth("s3cret", mgr), func(c *gin.Context) {
		c.String(http.StatusOK, Caller(c))
	})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"缺少认证头", "", http.StatusUnauthorized, `"message":"Unauthorized"`},
		{"非 Bearer", "Basic s3cret", http.StatusUnauthorized, `"message":"Unauthorized"`},
		{"空令牌", "Bearer ", http.StatusUnauthorized, `"message":"Unauthorized"`},
		{"错误令牌", "Bearer nope", http.StatusUnauthorized, `"message":"Invalid token"`},
		{"伪造 JWT", "Bearer " + forged, http.StatusUnauthorized, `"message":"Invalid token"`},
		{"静态令牌", "Bearer s3cret", http.StatusOK, "static"},
		{"JWT", "Bearer " + signed, http.StatusOK, "dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/p", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)
			if w.Code != tt.status {
				t.Errorf("期望 %d，实际=%d", tt.status, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.body) {
				t.Errorf("期望 body 包含 %q，实际=%s", tt.body, w.Body.String())
			}
			if tt.status == http.StatusUnauthorized && !strings.Contains(w.Body.String(), `"code":"UNAUTHORIZED"`) {
				t.Errorf("期望错误码 UNAUTHORIZED，实际=%s", w.Body.String())
			}
		})
	}
}

func TestBearerAuth_JWTDisabled(t *testing.T) {
	mgr := jwt.NewManager(&config.AuthConfig{})
	signer := jwt.NewManager(&config.AuthConfig{JWTSecret: "x", TokenTTL: time.Hour})
	token, _ := signer.GenerateToken("svc", "", 0)

	r := gin.New()
	r.GET("/p", BearerAuth("s3cret", mgr), okHandler)

	req := httptest.NewRequest("GET", "/p", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if w := serve(r, req); w.Code != http.StatusUnauthorized {
		t.Errorf("未配置 jwt_secret 时不应接受 JWT，实际=%d", w.Code)
	}
}

// ── BodyLimit ──

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/p", okHandler)

	w := serve(r, httptest.NewRequest("POST", "/p", strings.NewReader("0123456789")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("期望 413，实际=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "REQUEST_TOO_LARGE") {
		t.Errorf("期望错误码 REQUEST_TOO_LARGE，实际=%s", w.Body.String())
	}

	w = serve(r, httptest.NewRequest("POST", "/p", strings.NewReader("small")))
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际=%d", w.Code)
	}
}

// ── CORS ──

func TestCORS_Wildcard(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"*"}))
	r.GET("/p", okHandler)

	req := httptest.NewRequest("OPTIONS", "/p", nil)
	req.Header.Set("Origin", "https://anything.example")
	w := serve(r, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("预检期望 204，实际=%d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("期望 *，实际=%q", got)
	}
}

func TestCORS_AllowList(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.example/"}))
	r.GET("/p", okHandler)

	req := httptest.NewRequest("GET", "/p", nil)
	req.Header.Set("Origin", "https://app.example")
	w := serve(r, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("期望回显来源，实际=%q", got)
	}

	req = httptest.NewRequest("GET", "/p", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = serve(r, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("未允许的来源不应设置 CORS 头，实际=%q", got)
	}
}

// ── RequestID / Logger ──

func TestRequestIDAndLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core)))
	r.GET("/p", okHandler)

	req := httptest.NewRequest("GET", "/p?x=1", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	w := serve(r, req)
	if w.Header().Get("X-Request-ID") != "rid-1" {
		t.Errorf("应回显传入的 Request-ID，实际=%q", w.Header().Get("X-Request-ID"))
	}

	entries := logs.FilterMessage("请求完成").All()
	if len(entries) != 1 {
		t.Fatalf("期望 1 条请求日志，实际=%d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "rid-1" || fields["query"] != "x=1" {
		t.Errorf("日志字段不符: %v", fields)
	}

	for _, bad := range []string{strings.Repeat("a", 100), "rid\nforged=1", "has space"} {
		req = httptest.NewRequest("GET", "/p", nil)
		req.Header.Set("X-Request-ID", bad)
		w = serve(r, req)
		if rid := w.Header().Get("X-Request-ID"); len(rid) != 36 || rid == bad {
			t.Errorf("不合法的 Request-ID %q 应替换为 UUID，实际=%q", bad, rid)
		}
	}
}

func TestLogger_InjectsRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core)))
	r.GET("/p", func(c *gin.Context) {
		applogger.FromContext(c.Request.Context(), zap.NewNop()).Info("业务日志")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/p", nil)
	req.Header.Set("X-Request-ID", "rid-2")
	serve(r, req)

	entries := logs.FilterMessage("业务日志").All()
	if len(entries) != 1 || entries[0].ContextMap()["request_id"] != "rid-2" {
		t.Errorf("业务日志应带 request_id，实际=%v", entries)
	}
}

func TestLogger_QuietPaths(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/health", okHandler)

	serve(r, httptest.NewRequest("GET", "/health", nil))
	if logs.Len() != 0 {
		t.Errorf("探活请求不应在 Info 级别记录，实际=%d 条", logs.Len())
	}
}

func TestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(r, httptest.NewRequest("GET", "/bad", nil))
	serve(r, httptest.NewRequest("GET", "/boom", nil))

	if logs.FilterMessage("客户端错误").Len() != 1 {
		t.Error("4xx 应记录 Warn")
	}
	if logs.FilterMessage("请求处理失败").Len() != 1 {
		t.Error("5xx 应记录 Error")
	}
}

// ── SecurityHeaders ──

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/p", okHandler)

	w := serve(r, httptest.NewRequest("GET", "/p", nil))
	for _, h := range []string{"X-Frame-Options", "X-Content-Type-Options", "Content-Security-Policy", "Cache-Control"} {
		if w.Header().Get(h) == "" {
			t.Errorf("缺少响应头 %s", h)
		}
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HTTP 请求不应设置 HSTS")
	}

	req := httptest.NewRequest("GET", "/p", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = serve(r, req)
	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HTTPS 请求应设置 HSTS")
	}
}

// ── RateLimit ──

type countingLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[key]++
	return l.counts[key] <= limit, nil
}

func TestRateLimit(t *testing.T) {
	limiter := &countingLimiter{counts: map[string]int{}}
	r := gin.New()
	r.Use(RateLimit(limiter, 2, time.Minute, zap.NewNop()))
	r.GET("/p", okHandler)

	for i := 0; i < 2; i++ {
		if w := serve(r, httptest.NewRequest("GET", "/p", nil)); w.Code != http.StatusOK {
			t.Fatalf("第 %d 次期望 200，实际=%d", i+1, w.Code)
		}
	}
	w := serve(r, httptest.NewRequest("GET", "/p", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("超限期望 429，实际=%d", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("期望 Retry-After=60，实际=%q", w.Header().Get("Retry-After"))
	}
}

func TestRateLimit_FailOpen(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(&countingLimiter{err: errors.New("redis down")}, 1, time.Minute, zap.NewNop()))
	r.GET("/p", okHandler)

	for i := 0; i < 3; i++ {
		if w := serve(r, httptest.NewRequest("GET", "/p", nil)); w.Code != http.StatusOK {
			t.Errorf("限流器故障时应放行，实际=%d", w.Code)
		}
	}

	r = gin.New()
	r.Use(RateLimit(nil, 1, time.Minute, zap.NewNop()))
	r.GET("/p", okHandler)
	if w := serve(r, httptest.NewRequest("GET", "/p", nil)); w.Code != http.StatusOK {
		t.Errorf("未配置限流器时应放行，实际=%d", w.Code)
	}
}

// ── Metrics ──

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/team/:team_id/invites", okHandler)

	serve(r, httptest.NewRequest("GET", "/team/T1/invites", nil))
	serve(r, httptest.NewRequest("GET", "/team/T2/invites", nil))
	serve(r, httptest.NewRequest("GET", "/nowhere", nil))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body := w.Body.String()
	if !strings.Contains(body, `route="/team/:team_id/invites"`) {
		t.Error("应按路由模板聚合")
	}
	if !strings.Contains(body, `route="unmatched"`) {
		t.Error("未匹配路径应归为 unmatched")
	}
	if !strings.Contains(body, `webmeta_http_requests_total{method="GET",route="/team/:team_id/invites",status="200"} 2`) {
		t.Errorf("同一路由模板应累计 2 次，实际:\n%s", body)
	}
}
