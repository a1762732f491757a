package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"craz-web-meta/config"
)

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := NewLogger(&config.LogConfig{Level: "debug", Format: format})
		if err != nil {
			t.Fatalf("format=%s 初始化失败: %v", format, err)
		}
		if !l.Core().Enabled(-1) {
			t.Errorf("format=%s 期望启用 debug 级别", format)
		}
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "verbose", Format: "json"}); err == nil {
		t.Error("期望无效日志级别返回错误")
	}
}

func TestContextLogger(t *testing.T) {
	fallback := zap.NewNop()
	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Error("ctx 中没有日志器时应返回 fallback")
	}

	reqLogger := zap.NewExample().With(zap.String("request_id", "rid-1"))
	ctx := WithContext(context.Background(), reqLogger)
	if got := FromContext(ctx, fallback); got != reqLogger {
		t.Error("应返回 ctx 中的日志器")
	}
	if got := FromContext(context.WithoutCancel(ctx), fallback); got != reqLogger {
		t.Error("WithoutCancel 派生的 ctx 应保留日志器")
	}
}
