package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"craz-web-meta/config"
	"craz-web-meta/internal/api/handler"
	"craz-web-meta/internal/api/router"
	"craz-web-meta/internal/repository"
	"craz-web-meta/internal/service"
	"craz-web-meta/internal/store"
	"craz-web-meta/pkg/database"
	"craz-web-meta/pkg/jwt"
	applogger "craz-web-meta/pkg/logger"
	"craz-web-meta/pkg/metadata"
	"craz-web-meta/pkg/metrics"
	"craz-web-meta/pkg/redis"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "配置文件路径（默认查找 ./config.yaml 与 ./config/config.yaml）")
	pflag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 打开存储
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	backend, err := openStore(bgCtx, cfg, logger)
	if err != nil {
		logger.Fatal("存储初始化失败", zap.Error(err))
	}
	st := store.WithTimeout(backend.store, cfg.Store.CommandTimeout)

	// 4. 依赖注入: Store → Repository → Service → Handler
	m := metrics.New()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	extractor := metadata.NewExtractor(cfg.Metadata.FetchTimeout, cfg.Metadata.UserAgent)

	repo := repository.NewRepository(st)
	svc := service.NewService(cfg, repo, extractor, m, logger)
	h := handler.NewHandler(svc, repo)

	// 5. 初始化路由
	deps := router.Deps{JWT: jwtMgr, Metrics: m, Logger: logger}
	if backend.limiter != nil {
		deps.Limiter = backend.limiter
	} else if cfg.RateLimit.Enabled {
		logger.Warn("限流仅支持 redis 存储，已忽略 rate_limit.enabled", zap.String("store", cfg.Store.Driver))
	}
	engine := router.Setup(cfg, h, deps)

	// 6. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 7. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	stopBackground()
	if err := st.Close(); err != nil {
		logger.Warn("关闭存储失败", zap.Error(err))
	}

	logger.Info("服务器已关闭")
}

// storeBackend 打开的存储及其附带能力
type storeBackend struct {
	store   store.Store
	limiter *redis.Client // 仅 redis 后端提供限流
}

// openStore 按 store.driver 选择存储实现
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storeBackend, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverRedis:
		rdb, err := redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		return &storeBackend{store: rdb, limiter: rdb}, nil

	case config.StoreDriverPostgres:
		db, err := database.Open(&cfg.Database, cfg.Log.Level == "debug", logger)
		if err != nil {
			return nil, err
		}
		gs := store.NewGormStore(db)
		go gs.RunJanitor(ctx, cfg.Store.JanitorInterval, logger)
		return &storeBackend{store: gs}, nil

	case config.StoreDriverMemory:
		logger.Warn("使用内存存储：数据不持久化，且仅适用于单实例")
		return &storeBackend{store: store.NewMemory()}, nil

	default:
		return nil, fmt.Errorf("未知的存储驱动: %s", cfg.Store.Driver)
	}
}
