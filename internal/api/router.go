package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wfunc/ap-itemlog/internal/classify"
	"github.com/wfunc/ap-itemlog/internal/config"
	"github.com/wfunc/ap-itemlog/internal/logger"
	"github.com/wfunc/ap-itemlog/internal/middleware"
	"github.com/wfunc/ap-itemlog/internal/repository"
	"github.com/wfunc/ap-itemlog/internal/utils"
	"github.com/wfunc/ap-itemlog/internal/websocket"
	"github.com/wfunc/ap-itemlog/internal/world"
)

// Deps 路由依赖
type Deps struct {
	World           *world.World
	Resolver        *classify.Resolver
	Classifications repository.ClassificationRepository
	Locations       repository.LocationRepository
	Hub             *websocket.Hub
	JWTManager      *utils.JWTManager
	Admin           *config.AdminConfig
}

// Router API路由器
type Router struct {
	engine         *gin.Engine
	statusHandler  *StatusHandler
	adminHandler   *AdminHandler
	authHandler    *AuthHandler
	wsHandler      *WebSocketHandler
	authMiddleware *middleware.AuthMiddleware
	log            *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(deps *Deps) *Router {
	log := logger.GetModuleLogger("api")

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))

	router := &Router{
		engine:         engine,
		statusHandler:  NewStatusHandler(deps.World, deps.Classifications, deps.Locations),
		adminHandler:   NewAdminHandler(deps.Resolver, deps.Classifications, deps.Locations),
		authHandler:    NewAuthHandler(deps.JWTManager, deps.Admin),
		wsHandler:      NewWebSocketHandler(deps.Hub, log),
		authMiddleware: middleware.NewAuthMiddleware(deps.JWTManager),
		log:            log,
	}
	router.setupRoutes()
	return router
}

// Engine 暴露底层引擎给HTTP服务器
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.healthCheck)

	v1 := r.engine.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", r.authHandler.Login)
		}

		status := v1.Group("/status")
		{
			status.GET("", r.statusHandler.GameStatus)
			status.GET("/players/:name", r.statusHandler.PlayerDetail)
			status.GET("/checkability/:game", r.statusHandler.CheckabilityTable)
			status.GET("/classifications/pending", r.statusHandler.PendingClassifications)
			status.GET("/classifications/:game", r.statusHandler.GameClassifications)
		}

		v1.GET("/stream", r.wsHandler.Stream)

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.RequireRole("admin"))
		{
			admin.PUT("/classifications", r.adminHandler.OverrideClassification)
			admin.PUT("/checkability", r.adminHandler.OverrideCheckability)
		}
	}
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// requestLogger zap版请求日志中间件
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("请求完成",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
