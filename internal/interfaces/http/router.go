package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/uats/internal/config"
	"github.com/turtacn/uats/internal/infrastructure/monitoring"
	"github.com/turtacn/uats/internal/interfaces/http/handlers"
	"github.com/turtacn/uats/internal/interfaces/http/middleware"
	"github.com/turtacn/uats/pkg/constants"
	"github.com/turtacn/uats/pkg/logger"
)

// Handlers groups the console endpoint handlers.
type Handlers struct {
	Health        *handlers.HealthHandler
	State         *handlers.StateHandler
	Notifications *handlers.NotificationHandler
	Session       *handlers.SessionHandler
	WebAuthn      *handlers.WebAuthnHandler
	Assets        *handlers.AssetHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	config   *config.Config
	logger   logger.Logger
	handlers Handlers
	metrics  *monitoring.Metrics
	tracer   trace.Tracer
	gatherer prometheus.Gatherer
	claims   middleware.ClaimStore

	mu     sync.Mutex
	server *http.Server
}

// NewRouter 创建路由器。gatherer 为空时使用默认注册表，claims 为空时使用进程内存储。
func NewRouter(
	cfg *config.Config,
	log logger.Logger,
	h Handlers,
	metrics *monitoring.Metrics,
	tracer trace.Tracer,
	gatherer prometheus.Gatherer,
	claims middleware.ClaimStore,
) *Router {
	// 设置 Gin 模式
	if cfg.App.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if claims == nil {
		claims = middleware.NewMemoryClaims()
	}

	r := &Router{
		engine:   gin.New(),
		config:   cfg,
		logger:   log.WithComponent("router"),
		handlers: h,
		metrics:  metrics,
		tracer:   tracer,
		gatherer: gatherer,
		claims:   claims,
	}
	r.setupRoutes()
	return r
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 全局中间件
	r.engine.Use(
		middleware.RecoveryMiddleware(r.logger),
		middleware.RequestID(),
		middleware.ObservabilityMiddleware(r.tracer, r.metrics),
		middleware.LoggingMiddleware(r.logger),
	)

	// CORS 配置：浏览器 UI 所在的源；未配置时只服务同源请求
	if len(r.config.Server.CORSOrigins) > 0 {
		r.engine.Use(cors.New(cors.Config{
			AllowOrigins:     r.config.Server.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", constants.HeaderRequestID, constants.HeaderIdempotencyKey, "traceparent"},
			ExposeHeaders:    []string{constants.HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// 健康检查
	r.engine.GET("/health/live", r.handlers.Health.LivenessCheck)
	r.engine.GET("/health/ready", r.handlers.Health.ReadinessCheck)

	// Prometheus metrics
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))

	// Pprof 性能分析（由配置开启）
	if r.config.Server.EnablePprof {
		pprof.Register(r.engine)
	}

	// 状态流是长连接，不受请求超时约束
	r.engine.GET("/api/state/stream", r.handlers.State.Stream)

	api := r.engine.Group("/api", middleware.RequestTimeout(r.config.Server.RequestTimeout))
	{
		api.GET("/state", r.handlers.State.GetState)

		api.GET("/session", r.handlers.Session.Get)
		api.POST("/session", r.handlers.Session.SignIn)
		api.DELETE("/session", r.handlers.Session.SignOut)

		api.GET("/notifications", r.handlers.Notifications.List)
		api.POST("/notifications", r.handlers.Notifications.Add)
		api.DELETE("/notifications", r.handlers.Notifications.Clear)
		api.DELETE("/notifications/:id", r.handlers.Notifications.Remove)

		api.GET("/errors", r.handlers.Notifications.Errors)
		api.DELETE("/errors", r.handlers.Notifications.ClearErrors)
		api.DELETE("/errors/:key", r.handlers.Notifications.ClearError)

		webauthn := api.Group("/webauthn")
		{
			webauthn.GET("/devices", r.handlers.WebAuthn.ListDevices)
			webauthn.POST("/devices", r.handlers.WebAuthn.RegisterDevice)
			webauthn.DELETE("/devices/:id", r.handlers.WebAuthn.DeleteDevice)
			webauthn.POST("/validate", r.handlers.WebAuthn.ValidateDevice)
		}

		assets := api.Group("/assets")
		{
			assets.GET("/balances", r.handlers.Assets.Balances)
			assets.GET("/history", r.handlers.Assets.History)
			// 转账按 Idempotency-Key 去重
			assets.POST("/transfer",
				middleware.Idempotency(r.claims, r.config.Server.IdempotencyTTL, r.logger),
				r.handlers.Assets.Transfer)
		}

		api.GET("/profile", r.handlers.Assets.Profile)
		api.PUT("/profile", r.handlers.Assets.UpdateProfile)
	}

	// 404 处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "not_found",
			"error_description": "The requested resource was not found",
		})
	})
}

// Handler 返回带有 W3C trace context 提取的根处理器
func (r *Router) Handler() http.Handler {
	return otelhttp.NewHandler(r.engine, "uats-console")
}

// Start 启动 HTTP 服务器，直到 Stop 被调用
func (r *Router) Start() error {
	addr := r.config.Server.Addr()
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: r.config.Server.ReadTimeout,
		ReadTimeout:       r.config.Server.ReadTimeout,
		MaxHeaderBytes:    1 << 20, // 1MB
	}
	r.mu.Lock()
	r.server = server
	r.mu.Unlock()

	r.logger.Info(context.Background(), "Starting HTTP server", logger.String("address", addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop 停止 HTTP 服务器
func (r *Router) Stop(ctx context.Context) error {
	r.mu.Lock()
	server := r.server
	r.mu.Unlock()
	if server == nil {
		return nil
	}
	r.logger.Info(ctx, "Stopping HTTP server...")
	return server.Shutdown(ctx)
}

// Engine 返回 gin 引擎
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
