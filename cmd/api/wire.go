//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 使用方式：
// Step 1: 修改本文件的Providers或Injector
// Step 2: 运行 `wire gen ./cmd/api`
// Step 3: Wire生成wire_gen.go，包含完整的依赖创建代码
//
// main.go当前使用手动组装，两者的依赖链保持一致

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	appdrug "github.com/weihan/medstock/internal/application/drug"
	"github.com/weihan/medstock/internal/application/fulfillment"
	apporder "github.com/weihan/medstock/internal/application/order"
	apptransfer "github.com/weihan/medstock/internal/application/transfer"
	appuser "github.com/weihan/medstock/internal/application/user"
	"github.com/weihan/medstock/internal/domain/drug"
	"github.com/weihan/medstock/internal/domain/order"
	"github.com/weihan/medstock/internal/domain/user"
	"github.com/weihan/medstock/internal/infrastructure/config"
	"github.com/weihan/medstock/internal/infrastructure/persistence/mysql"
	"github.com/weihan/medstock/internal/infrastructure/persistence/redis"
	"github.com/weihan/medstock/internal/interface/http/handler"
	"github.com/weihan/medstock/internal/interface/http/middleware"
	"github.com/weihan/medstock/pkg/jwt"
	"github.com/weihan/medstock/pkg/mq"
	"github.com/weihan/medstock/pkg/response"
)

// ========================================
// Wire Provider Sets (依赖分组)
// ========================================

// infrastructureSet 基础设施层依赖
var infrastructureSet = wire.NewSet(
	config.Load,     // 加载配置文件
	mysql.NewDB,     // 创建MySQL连接
	redis.NewClient, // 创建Redis连接
	providePublisher,
)

// repositorySet 仓储层依赖
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,     // 用户仓储
	mysql.NewDrugRepository,     // 药品仓储
	mysql.NewOrderRepository,    // 医嘱仓储
	mysql.NewTransferRepository, // 转移记录仓储
	mysql.NewTxManager,          // 事务管理器
	redis.NewViewCache,          // 视图缓存
)

// domainSet 领域层依赖
var domainSet = wire.NewSet(
	user.NewService, // 用户领域服务
)

// applicationSet 应用层依赖
//
// 各应用包以小接口声明对事务/缓存/事件的依赖，
// 此处用wire.Bind把具体实现绑定到这些接口上
var applicationSet = wire.NewSet(
	appuser.NewRegisterUseCase,
	appuser.NewLoginUseCase,
	appuser.NewLogoutUseCase,

	appdrug.NewCreateDrugUseCase,
	provideListDrugsUseCase, // TTL来自配置，需要自定义Provider
	provideLowStockUseCase,
	appdrug.NewUpdateStockUseCase,
	wire.Bind(new(appdrug.TxManager), new(*mysql.TxManager)),
	wire.Bind(new(appdrug.ViewCache), new(*redis.ViewCache)),

	apporder.NewCreateOrderUseCase,
	apporder.NewListOrdersUseCase,
	apporder.NewListByDoctorUseCase,
	provideMARDashboardUseCase,
	apporder.NewDiscontinueOrderUseCase,
	wire.Bind(new(apporder.TxManager), new(*mysql.TxManager)),
	wire.Bind(new(apporder.ViewCache), new(*redis.ViewCache)),

	apptransfer.NewTransferStockUseCase,
	apptransfer.NewListTransfersUseCase,
	wire.Bind(new(apptransfer.TxManager), new(*mysql.TxManager)),
	wire.Bind(new(apptransfer.ViewCache), new(*redis.ViewCache)),
	provideTransferPublisher,

	fulfillment.NewFulfillUseCase,
	fulfillment.NewFulfillBulkUseCase,
	wire.Bind(new(fulfillment.TxManager), new(*mysql.TxManager)),
	wire.Bind(new(fulfillment.ViewCache), new(*redis.ViewCache)),
	provideFulfillmentPublisher,
)

// middlewareSet 中间件依赖
var middlewareSet = wire.NewSet(
	provideJWTManager,            // JWT管理器（需要从config提取参数）
	provideSessionStore,          // Session存储
	middleware.NewAuthMiddleware, // 认证中间件
)

// handlerSet HTTP处理器依赖
var handlerSet = wire.NewSet(
	handler.NewUserHandler,
	handler.NewDrugHandler,
	handler.NewOrderHandler,
	handler.NewTransferHandler,
)

// ========================================
// Custom Providers (自定义Provider)
// ========================================

// provideJWTManager 从配置创建JWT管理器
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

// provideSessionStore 从Redis客户端创建Session存储
func provideSessionStore(client *goredis.Client) *redis.SessionStore {
	return redis.NewSessionStore(client)
}

// providePublisher MQ未启用时返回nil指针，事件发布静默跳过
func providePublisher(cfg *config.Config) (*mq.Publisher, error) {
	if !cfg.MQ.Enabled {
		return nil, nil
	}
	return mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, "topic")
}

// nil的*mq.Publisher不能直接赋给接口，否则接口值非nil、nil判断失效
func provideFulfillmentPublisher(p *mq.Publisher) fulfillment.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

func provideTransferPublisher(p *mq.Publisher) apptransfer.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

// 同类型的time.Duration参数Wire无法区分，TTL用例需要自定义Provider
func provideListDrugsUseCase(drugRepo drug.Repository, cache *redis.ViewCache, cfg *config.Config) *appdrug.ListDrugsUseCase {
	return appdrug.NewListDrugsUseCase(drugRepo, cache, cfg.Cache.FormularyTTL)
}

func provideLowStockUseCase(drugRepo drug.Repository, cache *redis.ViewCache, cfg *config.Config) *appdrug.LowStockUseCase {
	return appdrug.NewLowStockUseCase(drugRepo, cache, cfg.Cache.InventoryStatusTTL)
}

func provideMARDashboardUseCase(orderRepo order.Repository, cache *redis.ViewCache, cfg *config.Config) *apporder.MARDashboardUseCase {
	return apporder.NewMARDashboardUseCase(orderRepo, cache, cfg.Cache.MARDashboardTTL)
}

// provideGinEngine 创建并配置Gin引擎
// 路由直接在此注册，避免与main.go中的registerRoutes冲突
func provideGinEngine(
	cfg *config.Config,
	userHandler *handler.UserHandler,
	drugHandler *handler.DrugHandler,
	orderHandler *handler.OrderHandler,
	transferHandler *handler.TransferHandler,
	auth *middleware.AuthMiddleware,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.Metrics())

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)
			users.POST("/logout", auth.RequireAuth(), userHandler.Logout)
		}

		drugs := v1.Group("/drugs")
		drugs.Use(auth.RequireAuth())
		{
			drugs.GET("", drugHandler.List)
			drugs.GET("/low-stock", drugHandler.LowStock)
			drugs.POST("", auth.RequireRole(user.RolePharmacist), drugHandler.Create)
			drugs.PUT("/:id/stock", auth.RequireRole(user.RolePharmacist), drugHandler.UpdateStock)
			drugs.POST("/:id/transfers", auth.RequireRole(user.RolePharmacist), transferHandler.Transfer)
		}

		v1.GET("/transfers", auth.RequireAuth(), transferHandler.List)

		orders := v1.Group("/orders")
		orders.Use(auth.RequireAuth())
		{
			orders.GET("", orderHandler.List)
			orders.GET("/mar", orderHandler.MARDashboard)
			orders.GET("/by-doctor/:id", orderHandler.ListByDoctor)
			orders.POST("", auth.RequireRole(user.RoleDoctor), orderHandler.Create)
			orders.PUT("/:id/discontinue", auth.RequireRole(user.RoleDoctor), orderHandler.Discontinue)
			orders.POST("/:id/fulfill", auth.RequireRole(user.RoleNurse), orderHandler.Fulfill)
			orders.POST("/fulfill-bulk", auth.RequireRole(user.RoleNurse), orderHandler.FulfillBulk)
		}
	}

	return r
}

// ========================================
// Wire Injector (依赖注入器)
// ========================================

// InitializeApp 初始化整个应用
func InitializeApp() (*gin.Engine, error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		middlewareSet,
		handlerSet,
		provideGinEngine,
	)

	return nil, nil
}
