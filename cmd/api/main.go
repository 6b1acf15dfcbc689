package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	appdrug "github.com/weihan/medstock/internal/application/drug"
	"github.com/weihan/medstock/internal/application/fulfillment"
	apporder "github.com/weihan/medstock/internal/application/order"
	apptransfer "github.com/weihan/medstock/internal/application/transfer"
	appuser "github.com/weihan/medstock/internal/application/user"
	"github.com/weihan/medstock/internal/domain/user"
	"github.com/weihan/medstock/internal/infrastructure/config"
	"github.com/weihan/medstock/internal/infrastructure/persistence/mysql"
	"github.com/weihan/medstock/internal/infrastructure/persistence/redis"
	"github.com/weihan/medstock/internal/interface/http/handler"
	"github.com/weihan/medstock/internal/interface/http/middleware"
	"github.com/weihan/medstock/pkg/jwt"
	"github.com/weihan/medstock/pkg/metrics"
	"github.com/weihan/medstock/pkg/mq"
	"github.com/weihan/medstock/pkg/response"
	"github.com/weihan/medstock/pkg/tracing"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	fmt.Printf("✓ 配置加载成功\n")
	fmt.Printf("  - 服务端口: %d\n", cfg.Server.Port)
	fmt.Printf("  - 运行模式: %s\n", cfg.Server.Mode)
	fmt.Printf("  - 数据库: %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	fmt.Printf("  - Redis: %s\n", cfg.Redis.Addr())

	// 2. 指标与追踪
	metrics.InitMetrics()

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer("medstock-api", cfg.Tracing.Endpoint)
		if err != nil {
			log.Fatalf("初始化追踪失败: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				fmt.Printf("关闭追踪失败: %v\n", err)
			}
		}()
		fmt.Printf("✓ 追踪已启用: %s\n", cfg.Tracing.Endpoint)
	}

	// 3. 基础设施连接
	db, err := mysql.NewDB(cfg)
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}

	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatalf("初始化Redis失败: %v", err)
	}

	// MQ可选：未启用时publisher为nil，事件发布静默跳过
	var publisher *mq.Publisher
	if cfg.MQ.Enabled {
		publisher, err = mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, "topic")
		if err != nil {
			log.Fatalf("初始化RabbitMQ失败: %v", err)
		}
		defer publisher.Close()
		fmt.Printf("✓ RabbitMQ连接成功: exchange=%s\n", cfg.MQ.Exchange)
	}

	// 4. 依赖注入（手动组装，与wire.go的Provider集合保持一致）
	// Repository ← Service ← UseCase ← Handler

	// 基础设施层
	userRepo := mysql.NewUserRepository(db)
	drugRepo := mysql.NewDrugRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	transferRepo := mysql.NewTransferRepository(db)
	txManager := mysql.NewTxManager(db)
	viewCache := redis.NewViewCache(redisClient)
	sessionStore := redis.NewSessionStore(redisClient)
	jwtManager := jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)

	// 领域层
	userService := user.NewService(userRepo)

	// 应用层
	registerUseCase := appuser.NewRegisterUseCase(userService)
	loginUseCase := appuser.NewLoginUseCase(userService, jwtManager, sessionStore)
	logoutUseCase := appuser.NewLogoutUseCase(sessionStore)

	createDrugUseCase := appdrug.NewCreateDrugUseCase(drugRepo, viewCache)
	listDrugsUseCase := appdrug.NewListDrugsUseCase(drugRepo, viewCache, cfg.Cache.FormularyTTL)
	lowStockUseCase := appdrug.NewLowStockUseCase(drugRepo, viewCache, cfg.Cache.InventoryStatusTTL)
	updateStockUseCase := appdrug.NewUpdateStockUseCase(drugRepo, txManager, viewCache)

	transferStockUseCase := apptransfer.NewTransferStockUseCase(
		drugRepo, transferRepo, txManager, viewCache, eventPublisher(publisher))
	listTransfersUseCase := apptransfer.NewListTransfersUseCase(transferRepo)

	createOrderUseCase := apporder.NewCreateOrderUseCase(orderRepo, drugRepo, viewCache)
	listOrdersUseCase := apporder.NewListOrdersUseCase(orderRepo)
	listByDoctorUseCase := apporder.NewListByDoctorUseCase(orderRepo, userRepo)
	marDashboardUseCase := apporder.NewMARDashboardUseCase(orderRepo, viewCache, cfg.Cache.MARDashboardTTL)
	discontinueUseCase := apporder.NewDiscontinueOrderUseCase(orderRepo, txManager, viewCache)

	fulfillUseCase := fulfillment.NewFulfillUseCase(
		orderRepo, drugRepo, txManager, viewCache, fulfillmentPublisher(publisher))
	fulfillBulkUseCase := fulfillment.NewFulfillBulkUseCase(
		orderRepo, drugRepo, txManager, viewCache, fulfillmentPublisher(publisher))

	// 接口层
	userHandler := handler.NewUserHandler(registerUseCase, loginUseCase, logoutUseCase)
	drugHandler := handler.NewDrugHandler(createDrugUseCase, listDrugsUseCase, lowStockUseCase, updateStockUseCase)
	orderHandler := handler.NewOrderHandler(
		createOrderUseCase, listOrdersUseCase, listByDoctorUseCase,
		marDashboardUseCase, discontinueUseCase, fulfillUseCase, fulfillBulkUseCase)
	transferHandler := handler.NewTransferHandler(transferStockUseCase, listTransfersUseCase)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, sessionStore)

	// 5. Gin引擎与路由
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(middleware.Metrics())

	registerRoutes(r, userHandler, drugHandler, orderHandler, transferHandler, authMiddleware)

	// 6. 启动与优雅退出
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		fmt.Printf("\n🚀 服务启动成功！\n")
		fmt.Printf("   访问地址: http://localhost%s\n", addr)
		fmt.Printf("   健康检查: http://localhost%s/ping\n", addr)
		fmt.Printf("   API文档:  http://localhost%s/swagger/index.html\n", addr)
		fmt.Printf("   指标端点: http://localhost%s/metrics\n", addr)
		fmt.Printf("\n按Ctrl+C停止服务\n\n")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("启动服务失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("正在关闭服务...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("关闭服务失败: %v", err)
	}
	fmt.Println("服务已退出")
}

// eventPublisher *mq.Publisher → 接口，保持nil语义
// 直接传nil指针会得到非nil接口值，后续nil判断失效
func eventPublisher(p *mq.Publisher) apptransfer.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

func fulfillmentPublisher(p *mq.Publisher) fulfillment.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

// registerRoutes 注册路由
// 角色约束：医生开立/停用医嘱，护士履约，药师管理药品与库存；admin全放行
func registerRoutes(
	r *gin.Engine,
	userHandler *handler.UserHandler,
	drugHandler *handler.DrugHandler,
	orderHandler *handler.OrderHandler,
	transferHandler *handler.TransferHandler,
	auth *middleware.AuthMiddleware,
) {
	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// Prometheus指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		// 用户模块（注册/登录公开）
		users := v1.Group("/users")
		{
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)
			users.POST("/logout", auth.RequireAuth(), userHandler.Logout)
		}

		// 药品模块
		drugs := v1.Group("/drugs")
		drugs.Use(auth.RequireAuth())
		{
			drugs.GET("", drugHandler.List)
			drugs.GET("/low-stock", drugHandler.LowStock)
			drugs.POST("", auth.RequireRole(user.RolePharmacist), drugHandler.Create)
			drugs.PUT("/:id/stock", auth.RequireRole(user.RolePharmacist), drugHandler.UpdateStock)
			drugs.POST("/:id/transfers", auth.RequireRole(user.RolePharmacist), transferHandler.Transfer)
		}

		// 转移记录
		v1.GET("/transfers", auth.RequireAuth(), transferHandler.List)

		// 医嘱模块
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
}
