package handler

import (
	"marketplace/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter 配置路由
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	// 设置 gin 为发布模式（减少日志输出）
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// 注册中间件
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	// 创建处理器
	h := NewHandler(db, rdb, cfg)

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 卖家侧：收益、提现、履约
		seller := api.Group("/sellers/me", SellerAuthMiddleware())
		{
			seller.GET("/earnings", h.GetEarningsSummary)
			seller.GET("/earnings/details", h.ListEarningDetails)
			seller.GET("/transactions", h.ListTransactions)
			seller.GET("/payouts", h.ListPayouts)
			seller.POST("/payouts/request", h.RequestPayout)
			seller.PUT("/payout-settings", h.UpdatePayoutSettings)
			seller.GET("/orders", h.ListSellerOrders)
			seller.PUT("/orders/:orderNo/status", h.UpdateOrderStatus)
			seller.PUT("/orders/:orderNo/ship", h.ShipOrder)
			seller.PUT("/orders/:orderNo/deliver", h.DeliverOrder)
		}

		// 订单接入与查询
		orders := api.Group("/orders")
		{
			orders.POST("", BuyerAuthMiddleware(), h.CreateOrder)
			orders.GET("/:orderNo", h.GetOrder)
			orders.POST("/:orderNo/cancel", h.CancelOrder)
		}

		// 渠道打款结果回调（网关只放行渠道侧调用）
		api.POST("/payouts/:payoutId/settle", h.SettlePayoutCallback)

		// 买家侧
		buyers := api.Group("/buyers/me", BuyerAuthMiddleware())
		{
			buyers.GET("/orders", h.ListBuyerOrders)
		}

		// 站内通知
		users := api.Group("/users/me", UserAuthMiddleware())
		{
			users.GET("/notifications", h.ListNotifications)
			users.GET("/notifications/unread-count", h.CountUnreadNotifications)
			users.PUT("/notifications/:id/read", h.MarkNotificationRead)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
