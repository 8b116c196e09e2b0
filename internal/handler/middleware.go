package handler

import (
	"log"
	"strconv"
	"time"

	"marketplace/pkg/response"

	"github.com/gin-gonic/gin"
)

// LoggerMiddleware 日志中间件
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// 处理请求
		c.Next()

		// 记录日志
		latency := time.Since(start)
		status := c.Writer.Status()

		if query != "" {
			path = path + "?" + query
		}

		log.Printf("[HTTP] %d | %13v | %15s | %-7s %s",
			status,
			latency,
			c.ClientIP(),
			c.Request.Method,
			path,
		)
	}
}

// RecoveryMiddleware 恢复中间件，防止 panic 导致服务崩溃
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[PANIC] %v", err)
				c.AbortWithStatusJSON(500, response.Response{
					Success: false,
					Message: "服务器内部错误",
				})
			}
		}()
		c.Next()
	}
}

// CORSMiddleware 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Seller-Id, X-Buyer-Id, X-User-Id")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// 身份由上游网关完成认证后通过请求头透传，这里只做解析和存在性校验

const (
	ctxKeySellerID = "seller_id"
	ctxKeyBuyerID  = "buyer_id"
	ctxKeyUserID   = "user_id"
)

func requireIDHeader(header, ctxKey, errMsg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.GetHeader(header), 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(401, response.Response{
				Success: false,
				Message: errMsg,
			})
			return
		}
		c.Set(ctxKey, id)
		c.Next()
	}
}

// SellerAuthMiddleware 解析卖家身份
func SellerAuthMiddleware() gin.HandlerFunc {
	return requireIDHeader("X-Seller-Id", ctxKeySellerID, "缺少卖家身份")
}

// BuyerAuthMiddleware 解析买家身份
func BuyerAuthMiddleware() gin.HandlerFunc {
	return requireIDHeader("X-Buyer-Id", ctxKeyBuyerID, "缺少买家身份")
}

// UserAuthMiddleware 解析通用用户身份（买卖双方都会收到站内通知）
func UserAuthMiddleware() gin.HandlerFunc {
	return requireIDHeader("X-User-Id", ctxKeyUserID, "缺少用户身份")
}

func sellerID(c *gin.Context) int64 {
	return c.GetInt64(ctxKeySellerID)
}

func buyerID(c *gin.Context) int64 {
	return c.GetInt64(ctxKeyBuyerID)
}

func userID(c *gin.Context) int64 {
	return c.GetInt64(ctxKeyUserID)
}
