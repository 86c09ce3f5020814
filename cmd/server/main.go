package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/wfunc/ap-itemlog/internal/api"
	"github.com/wfunc/ap-itemlog/internal/classify"
	"github.com/wfunc/ap-itemlog/internal/config"
	"github.com/wfunc/ap-itemlog/internal/database"
	"github.com/wfunc/ap-itemlog/internal/errors"
	"github.com/wfunc/ap-itemlog/internal/logger"
	"github.com/wfunc/ap-itemlog/internal/repository"
	"github.com/wfunc/ap-itemlog/internal/rules"
	"github.com/wfunc/ap-itemlog/internal/tracker"
	"github.com/wfunc/ap-itemlog/internal/utils"
	"github.com/wfunc/ap-itemlog/internal/websocket"
	"github.com/wfunc/ap-itemlog/internal/world"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	// 服务组件
	hub        *websocket.Hub
	notifier   *tracker.Notifier
	tracker    *tracker.Tracker
	httpServer *http.Server

	// 关闭控制
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	// 命令行参数
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	// 显示版本信息
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// 显示帮助信息
	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Get()
	if err := cfg.Validate(); err != nil {
		fmt.Printf("配置校验失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	// 打印启动信息
	printStartInfo(cfg)

	// 创建服务器实例
	server := NewServer(cfg)

	// 启动服务器
	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	// 等待退出信号
	server.WaitForShutdown()

	// 优雅关闭
	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:    cfg,
		logger: logger.GetLogger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动Archipelago物品日志追踪服务...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
		zap.String("room", s.cfg.Room.RoomID()),
	)

	// 初始化各个组件
	if err := s.initComponents(); err != nil {
		return errors.Wrap(err, errors.ErrUnknown, "初始化组件失败")
	}

	// 启动各个服务
	if err := s.startServices(); err != nil {
		return errors.Wrap(err, errors.ErrUnknown, "启动服务失败")
	}

	// 监听配置变化
	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...")
		s.reloadConfig(newCfg)
	})

	s.logger.Info("服务器启动成功",
		zap.String("http", fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)),
		zap.String("log_url", s.cfg.Room.LogURL),
	)

	return nil
}

// initComponents 初始化组件
func (s *Server) initComponents() error {
	s.logger.Info("初始化组件...")

	// 初始化数据库
	if err := s.initDatabase(); err != nil {
		return err
	}

	db := database.GetDB()
	classifications := repository.NewClassificationRepository(db)
	locations := repository.NewLocationRepository(db)
	cursors := repository.NewCursorRepository(db)

	// 规则表、世界状态与重要度解析器
	registry := rules.NewRegistry()
	w := world.New(locations, registry.AlwaysCheckable)
	resolver := classify.New(classifications, registry, s.cfg.Classify.CacheTTL)

	// 实时订阅与通知出口
	s.hub = websocket.NewHub(logger.GetModuleLogger("websocket"))
	s.notifier = tracker.NewNotifier(&s.cfg.Webhook)
	s.notifier.SetBroadcaster(s.hub)

	// 追踪会话
	s.tracker = tracker.New(s.cfg, w, resolver, registry, s.notifier, cursors)

	// HTTP路由
	jwtManager := utils.NewJWTManager(
		s.cfg.Security.JWT.Secret,
		time.Duration(s.cfg.Security.JWT.ExpireHours)*time.Hour,
	)
	router := api.NewRouter(&api.Deps{
		World:           w,
		Resolver:        resolver,
		Classifications: classifications,
		Locations:       locations,
		Hub:             s.hub,
		JWTManager:      jwtManager,
		Admin:           &s.cfg.Security.Admin,
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      router.Engine(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.logger.Info("所有组件初始化完成")
	return nil
}

// initDatabase 初始化数据库
func (s *Server) initDatabase() error {
	s.logger.Info("初始化数据库...", zap.String("driver", s.cfg.Database.Driver))

	if err := database.Init(&s.cfg.Database); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseConnect, "初始化数据库连接失败")
	}

	if s.cfg.Database.AutoMigrate {
		s.logger.Info("执行数据库自动迁移...")
		if err := database.AutoMigrate(database.GetDB()); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseMigrate, "数据库迁移失败")
		}
	}

	s.logger.Info("数据库初始化完成")
	return nil
}

// startServices 启动服务
func (s *Server) startServices() error {
	s.logger.Info("启动服务...")

	// 实时订阅分发
	go s.hub.Run()

	// 会话启动：登记玩家、预载剧透、静默重放历史日志
	if err := s.tracker.Bootstrap(s.ctx); err != nil {
		return err
	}

	// 轮询循环
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.tracker.Run(s.ctx); err != nil {
			s.logger.Error("追踪循环退出", zap.Error(err))
		}
	}()

	// HTTP服务器
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP服务器异常退出", zap.Error(err))
		}
	}()

	s.logger.Info("所有服务启动完成",
		zap.String("session_id", s.tracker.SessionID()),
	)
	return nil
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)

	signal.Notify(sigCh,
		syscall.SIGINT,  // Ctrl+C
		syscall.SIGTERM, // kill命令
		syscall.SIGQUIT, // Ctrl+\
	)

	sig := <-sigCh
	s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 停止接收新请求
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("关闭HTTP服务器失败", zap.Error(err))
	}

	// 取消主上下文，追踪循环会在当前轮次内冲刷剩余消息并退出
	s.cancel()

	// 等待所有服务关闭
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("所有服务已正常关闭")
	case <-shutdownCtx.Done():
		s.logger.Warn("关闭超时，强制退出")
		return errors.New(errors.ErrTimeout, "关闭超时")
	}

	// 关闭各个组件
	if err := s.closeComponents(); err != nil {
		s.logger.Error("关闭组件失败", zap.Error(err))
		return err
	}

	// 同步日志
	if err := logger.Sync(); err != nil {
		fmt.Printf("同步日志失败: %v\n", err)
	}

	return nil
}

// closeComponents 关闭组件
func (s *Server) closeComponents() error {
	s.logger.Info("关闭组件...")

	if err := database.Close(); err != nil {
		s.logger.Error("关闭数据库失败", zap.Error(err))
	}

	s.logger.Info("所有组件已关闭")
	return nil
}

// reloadConfig 重新加载配置
func (s *Server) reloadConfig(newCfg *config.Config) {
	s.cfg = newCfg

	// 轮询间隔、释放窗口等在下一轮次生效；数据库和监听地址需要重启
	s.logger.Info("配置重新加载完成")
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("Archipelago物品日志追踪服务\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("Archipelago物品日志追踪服务")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  ap-itemlog [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  AP_ITEMLOG_ENV          运行环境 (development/production/test)")
	fmt.Println("  AP_ITEMLOG_CONFIG       配置文件路径")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  ap-itemlog -config=/path/to/config.yaml")
	fmt.Println("  ap-itemlog -version")
}

// printStartInfo 打印启动信息
func printStartInfo(cfg *config.Config) {
	fmt.Println("==============================================")
	fmt.Println("     Archipelago 物品日志追踪服务")
	fmt.Printf("     版本: %s  模式: %s\n", Version, cfg.Server.Mode)
	fmt.Printf("     房间: %s\n", cfg.Room.RoomID())
	fmt.Println("==============================================")
}
